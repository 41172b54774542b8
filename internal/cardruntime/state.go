package cardruntime

import "github.com/TanHoangarc/Admin/internal/domain"

// ScannerStatus 는 카메라 스캐너 흐름의 단계다.
type ScannerStatus string

// ScannerStatus 상수 목록.
const (
	ScannerIdle       ScannerStatus = "idle"
	ScannerRequesting ScannerStatus = "requesting"
	ScannerStreaming  ScannerStatus = "streaming"
	ScannerDenied     ScannerStatus = "denied"
)

// ConsultStatus 는 상담 폼 흐름의 단계다.
type ConsultStatus string

// ConsultStatus 상수 목록.
const (
	ConsultEditing    ConsultStatus = "editing"
	ConsultSubmitting ConsultStatus = "submitting"
	ConsultCopied     ConsultStatus = "copied"
	ConsultCopyFailed ConsultStatus = "copy-failed"
)

// ImageModal: 이미지/QR 표시 모달
type ImageModal struct {
	Open      bool
	Src       string
	Caption   string
	Scannable bool
}

// ScannerModal: 카메라 스캐너 모달
type ScannerModal struct {
	Open   bool
	Status ScannerStatus
	Error  string
}

// ConsultFields 는 상담 폼 입력값이다.
type ConsultFields struct {
	Name    string
	Phone   string
	Service string
	Message string
}

// ConsultModal: 상담 폼 모달
type ConsultModal struct {
	Open   bool
	Status ConsultStatus
	Fields ConsultFields
}

// State 는 한 문서 보기 동안만 유지되는 전체 런타임 상태다. 비교 가능한 값 타입이다.
type State struct {
	Lang    domain.Language
	Image   ImageModal
	Scanner ScannerModal
	Consult ConsultModal
}

// InitialState 는 처음 열린 페이지의 상태다.
func InitialState() State {
	return State{
		Lang:    domain.LanguageVi,
		Scanner: ScannerModal{Status: ScannerIdle},
		Consult: ConsultModal{Status: ConsultEditing},
	}
}

// EventType 은 전이 이벤트 종류다.
type EventType string

// EventType 상수 목록.
const (
	EventToggleLang        EventType = "TOGGLE_LANG"
	EventOpenImage         EventType = "OPEN_IMAGE"
	EventCloseImage        EventType = "CLOSE_IMAGE"
	EventOpenScanner       EventType = "OPEN_SCANNER"
	EventOpenScannerFromQR EventType = "OPEN_SCANNER_FROM_QR"
	EventCameraGranted     EventType = "CAMERA_GRANTED"
	EventCameraDenied      EventType = "CAMERA_DENIED"
	EventCloseScanner      EventType = "CLOSE_SCANNER"
	EventOpenConsult       EventType = "OPEN_CONSULT"
	EventCloseConsult      EventType = "CLOSE_CONSULT"
	EventEditField         EventType = "EDIT_FIELD"
	EventSubmit            EventType = "SUBMIT"
	EventCopyOK            EventType = "COPY_OK"
	EventCopyFailed        EventType = "COPY_FAILED"
)

// Event 는 전이 입력이다. 종류별로 쓰는 필드만 채운다.
type Event struct {
	Type EventType

	// OPEN_IMAGE
	Src       string
	Caption   string
	Scannable bool

	// EDIT_FIELD
	Field string
	Value string

	// CAMERA_DENIED
	Err string
}

// Transition 은 순수 전이 함수다. 받아들일 수 없는 이벤트는 상태를 그대로 돌려준다.
func Transition(s State, ev Event) State {
	switch ev.Type {
	case EventToggleLang:
		s.Lang = s.Lang.Toggle()
	case EventOpenImage:
		s.Image = ImageModal{Open: true, Src: ev.Src, Caption: ev.Caption, Scannable: ev.Scannable}
	case EventCloseImage:
		s.Image = ImageModal{}
	case EventOpenScannerFromQR:
		// 스택이 아니라 교차 전이: QR 모달을 닫고 스캐너를 연다. 이미 열린 스캐너는 건드리지 않는다.
		s.Image = ImageModal{}
		if !s.Scanner.Open {
			s.Scanner = ScannerModal{Open: true, Status: ScannerRequesting}
		}
	case EventOpenScanner, EventCameraGranted, EventCameraDenied, EventCloseScanner:
		s.Scanner = s.Scanner.next(ev)
	case EventOpenConsult, EventCloseConsult, EventEditField, EventSubmit, EventCopyOK, EventCopyFailed:
		s.Consult = s.Consult.next(ev)
	}
	return s
}

func (m ScannerModal) next(ev Event) ScannerModal {
	switch ev.Type {
	case EventOpenScanner:
		if m.Open {
			return m
		}
		return ScannerModal{Open: true, Status: ScannerRequesting}
	case EventCameraGranted:
		if m.Open && m.Status == ScannerRequesting {
			return ScannerModal{Open: true, Status: ScannerStreaming}
		}
	case EventCameraDenied:
		if m.Open && m.Status == ScannerRequesting {
			return ScannerModal{Open: true, Status: ScannerDenied, Error: ev.Err}
		}
	case EventCloseScanner:
		return ScannerModal{Status: ScannerIdle}
	}
	return m
}

func (m ConsultModal) next(ev Event) ConsultModal {
	switch ev.Type {
	case EventOpenConsult:
		return ConsultModal{Open: true, Status: ConsultEditing, Fields: m.Fields}
	case EventCloseConsult:
		if m.Status != ConsultSubmitting {
			m.Open = false
		}
	case EventEditField:
		if m.Status == ConsultEditing {
			m.Fields = m.Fields.with(ev.Field, ev.Value)
		}
	case EventSubmit:
		if m.Open && m.Status == ConsultEditing {
			m.Status = ConsultSubmitting
		}
	case EventCopyOK:
		if m.Status == ConsultSubmitting {
			m.Status = ConsultCopied
		}
	case EventCopyFailed:
		if m.Status == ConsultSubmitting {
			m.Status = ConsultCopyFailed
		}
	}
	return m
}

func (f ConsultFields) with(field, value string) ConsultFields {
	switch field {
	case "name":
		f.Name = value
	case "phone":
		f.Phone = value
	case "service":
		f.Service = value
	case "message":
		f.Message = value
	}
	return f
}
