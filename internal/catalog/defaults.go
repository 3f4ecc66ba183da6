package catalog

import "github.com/Choi-Sungyun0716/deskmate/internal/types"

// Default returns the built-in enterprise assistant catalog: five domains
// (schedule, document, qa, email, tech) and their capabilities. Descriptions
// and escalation triggers are user-facing Korean text; field paths are the
// shared dotted vocabulary and must stay stable across releases.
func Default() *Catalog {
	c, err := New(defaultCapabilities, defaultDomains)
	if err != nil {
		// The built-in tables are validated by tests; a failure here is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return c
}

var defaultCapabilities = []types.Capability{
	// Schedule domain
	{
		Name:        "annual_leave_inquiry",
		Description: "연차/반차 잔여 및 사용 이력을 조회합니다.",
		Inputs:      []string{"input.employee_id", "schedule_domain.leave.leave_type"},
		Outputs:     []string{"schedule_domain.leave.leave_balance", "output.messages"},
	},
	{
		Name:        "annual_leave_application",
		Description: "연차/반차 신청서를 생성하거나 상태를 갱신합니다.",
		Inputs: []string{
			"input.employee_id",
			"schedule_domain.leave.leave_type",
			"schedule_domain.leave.start_date",
			"schedule_domain.leave.end_date",
		},
		Outputs: []string{"schedule_domain.leave.leave_request_id", "schedule_domain.leave.leave_status"},
	},
	{
		Name:        "meeting_room_inquiry",
		Description: "지정된 시간대에 사용 가능한 회의실 목록을 조회합니다.",
		Inputs: []string{
			"schedule_domain.meeting_room.start_time",
			"schedule_domain.meeting_room.end_time",
			"schedule_domain.meeting_room.participants",
			"schedule_domain.meeting_room.require_video",
		},
		Outputs: []string{"schedule_domain.meeting_room.available_rooms"},
	},
	{
		Name:        "meeting_room_recommendation",
		Description: "가용 회의실을 점수화하고 추천 순위를 제공합니다.",
		Inputs:      []string{"schedule_domain.meeting_room.available_rooms"},
		Outputs:     []string{"schedule_domain.meeting_room.recommended_rooms"},
	},
	{
		Name:        "meeting_room_reservation_cancel",
		Description: "회의실 예약을 생성하거나 취소하고 reservation_id를 관리합니다.",
		Inputs: []string{
			"schedule_domain.meeting_room.selected_room_id",
			"schedule_domain.meeting_room.start_time",
			"schedule_domain.meeting_room.end_time",
		},
		Outputs: []string{
			"schedule_domain.meeting_room.reservation_id",
			"schedule_domain.meeting_room.reservation_status",
		},
	},
	{
		Name:        "schedule_register_cancel",
		Description: "사내 캘린더 일정을 등록하거나 취소합니다.",
		Inputs: []string{
			"schedule_domain.schedule.title",
			"schedule_domain.schedule.start_time",
			"schedule_domain.schedule.end_time",
			"schedule_domain.meeting_room.reservation_id",
		},
		Outputs: []string{"schedule_domain.schedule.schedule_id", "schedule_domain.schedule.schedule_status"},
	},
	{
		Name:        "schedule_inquiry",
		Description: "직원의 특정 기간 일정 목록을 조회합니다.",
		Inputs:      []string{"input.employee_id", "schedule_domain.schedule.start_time", "schedule_domain.schedule.end_time"},
		Outputs:     []string{"schedule_domain.schedule"},
	},
	{
		Name:        "schedule_notification",
		Description: "일정/휴가 처리 결과를 알림 메시지로 발송합니다.",
		Inputs:      []string{"schedule_domain.schedule.schedule_id", "schedule_domain.leave.leave_request_id"},
		Outputs:     []string{"output.messages"},
	},
	// Document domain
	{
		Name:        "document_auto_creation",
		Description: "템플릿 기반으로 문서를 자동 작성합니다.",
		Inputs:      []string{"document_domain.template_name", "document_domain.document_content"},
		Outputs:     []string{"document_domain.document_content", "document_domain.document_id", "document_domain.document_path"},
	},
	{
		Name:        "auto_approval_request",
		Description: "결재선 정보를 이용해 결재 요청을 전송합니다.",
		Inputs:      []string{"document_domain.document_id", "document_domain.approval_line"},
		Outputs:     []string{"document_domain.approval_status"},
	},
	{
		Name:        "pdf_conversion",
		Description: "생성된 문서를 PDF로 변환합니다.",
		Inputs:      []string{"document_domain.document_content"},
		Outputs:     []string{"document_domain.document_path"},
	},
	{
		Name:        "knowledge_upload_rag",
		Description: "문서를 RAG 지식베이스에 업로드하고 컬렉션을 관리합니다.",
		Inputs:      []string{"document_domain.document_path", "document_domain.vector_db_collection"},
		Outputs:     []string{"document_domain.upload_status", "document_domain.vector_db_collection"},
	},
	// QA domain
	{
		Name:        "manual_search_rag",
		Description: "사내 매뉴얼을 RAG 방식으로 검색합니다.",
		Inputs:      []string{"qa_domain.search_query", "qa_domain.search_type"},
		Outputs:     []string{"qa_domain.rag_results"},
	},
	{
		Name:        "welfare_inquiry",
		Description: "복리후생 정보를 조회합니다.",
		Inputs:      []string{"qa_domain.benefit_category"},
		Outputs:     []string{"qa_domain.benefit_info"},
	},
	{
		Name:        "menu_inquiry",
		Description: "사내 식단표를 조회합니다.",
		Inputs:      []string{"qa_domain.menu_date", "qa_domain.menu_corner"},
		Outputs:     []string{"qa_domain.menu"},
	},
	{
		Name:        "menu_recommendation",
		Description: "개인 맞춤 식단을 추천합니다.",
		Inputs:      []string{"qa_domain.menu_preferences"},
		Outputs:     []string{"qa_domain.menu_recommendation"},
	},
	// Email domain
	{
		Name:        "email_search",
		Description: "메일함에서 조건에 맞는 이메일을 검색합니다.",
		Inputs:      []string{"email_domain.search_query", "email_domain.email_importance"},
		Outputs:     []string{"email_domain.email_search_results"},
	},
	{
		Name:        "reply_draft_generation",
		Description: "이메일 회신 초안을 생성합니다.",
		Inputs:      []string{"input.query"},
		Outputs:     []string{"email_domain.email_draft", "email_domain.email_subject"},
	},
	{
		Name:        "auto_sending",
		Description: "작성된 이메일을 자동으로 발송합니다.",
		Inputs:      []string{"email_domain.email_draft", "email_domain.email_to", "email_domain.email_cc"},
		Outputs:     []string{"email_domain.email_sent"},
	},
	{
		Name:        "email_receipt_detection",
		Description: "발송된 이메일의 수신 여부를 추적합니다.",
		Inputs:      []string{"email_domain.email_id"},
		Outputs:     []string{"email_domain.email_receipt_status"},
	},
	// Tech domain
	{
		Name:        "patent_search",
		Description: "특허 검색을 수행합니다.",
		Inputs:      []string{"tech_domain.search_keywords"},
		Outputs:     []string{"tech_domain.search_results"},
	},
	{
		Name:        "patent_vectorization",
		Description: "선택한 특허를 벡터화하여 DB에 적재합니다.",
		Inputs:      []string{"tech_domain.selected_patent_id", "tech_domain.vector_db_collection"},
		Outputs:     []string{"tech_domain.vectorization_status", "tech_domain.vector_db_collection"},
	},
	{
		Name:        "paper_search",
		Description: "논문/기사 검색을 수행합니다.",
		Inputs:      []string{"tech_domain.search_keywords"},
		Outputs:     []string{"tech_domain.search_results"},
	},
	{
		Name:        "paper_vectorization",
		Description: "선택한 논문을 벡터화합니다.",
		Inputs:      []string{"tech_domain.selected_article_id"},
		Outputs:     []string{"tech_domain.vectorization_status"},
	},
}

var defaultDomains = []types.Domain{
	{
		Name:          "schedule_master",
		DisplayDomain: "schedule",
		Description:   "스케줄/휴가/회의실 관련 복합 작업을 조율합니다.",
		SupportedIntents: []string{
			"leave", "meeting_room", "meeting", "inquiry",
		},
		CapabilityChain: []string{
			"meeting_room_inquiry",
			"meeting_room_recommendation",
			"meeting_room_reservation_cancel",
			"schedule_register_cancel",
			"schedule_notification",
			"annual_leave_inquiry",
			"annual_leave_application",
			"schedule_inquiry",
		},
		EscalationTriggers: []string{
			"participants 정보 부족",
			"회의실 조건 미확정",
			"휴가 승인자 미지정",
		},
	},
	{
		Name:          "document_master",
		DisplayDomain: "document",
		Description:   "문서 생성, 결재선 관리, 지식 업로드를 담당합니다.",
		SupportedIntents: []string{
			"generate", "approval", "upload",
		},
		CapabilityChain: []string{
			"document_auto_creation",
			"pdf_conversion",
			"auto_approval_request",
			"knowledge_upload_rag",
		},
		EscalationTriggers: []string{"approval_line 누락", "템플릿 변수 부족"},
	},
	{
		Name:          "qa_master",
		DisplayDomain: "qa",
		Description:   "사내 매뉴얼, 복지, 식단 질의에 대응합니다.",
		SupportedIntents: []string{
			"manual", "benefit", "menu", "recommend",
		},
		CapabilityChain: []string{
			"manual_search_rag",
			"welfare_inquiry",
			"menu_inquiry",
			"menu_recommendation",
		},
		EscalationTriggers: []string{"검색 범위 모호", "메뉴 날짜 미지정"},
	},
	{
		Name:          "email_master",
		DisplayDomain: "email",
		Description:   "이메일 검색, 초안 작성, 발송 및 연동을 담당합니다.",
		SupportedIntents: []string{
			"search", "compose", "notify",
		},
		CapabilityChain: []string{
			"email_search",
			"reply_draft_generation",
			"auto_sending",
			"email_receipt_detection",
		},
		EscalationTriggers: []string{"수신자 정보 누락", "민감도 확인 필요"},
	},
	{
		Name:          "technology_master",
		DisplayDomain: "tech",
		Description:   "특허/논문 검색과 벡터화를 조율합니다.",
		SupportedIntents: []string{
			"patent", "article", "vectorize",
		},
		CapabilityChain: []string{
			"patent_search",
			"patent_vectorization",
			"paper_search",
			"paper_vectorization",
		},
		EscalationTriggers: []string{"검색 키워드 부족", "유료 문서 접근 확인"},
	},
}
