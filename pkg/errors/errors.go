// Package errors: 카드 서비스 전체에서 사용되는 에러 타입들을 정의한다.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrMissingIdentity: 이름과 슬러그가 모두 비어 있어 카드를 만들 수 없음
var ErrMissingIdentity = stdErrors.New("profile has neither name nor slug")

// ErrNotFound: 요청한 레코드가 저장소에 없음
var ErrNotFound = stdErrors.New("record not found")

// CacheError: 캐시 작업 중 발생한 에러
type CacheError struct {
	Operation string // get, set, delete 등
	Key       string // 캐시 키
	Err       error  // 원인 에러
}

func (e CacheError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cache error operation=%s key=%s", e.Operation, e.Key)
	}
	return fmt.Sprintf("cache error operation=%s key=%s: %v", e.Operation, e.Key, e.Err)
}

func (e CacheError) Unwrap() error { return e.Err }

// NewCacheError: 캐시 에러를 생성한다.
func NewCacheError(operation, key string, cause error) *CacheError {
	return &CacheError{
		Operation: operation,
		Key:       key,
		Err:       cause,
	}
}

// ValidationError: 입력 검증 실패 에러
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation error field=%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return e.Err }

// NewValidationError: 검증 에러를 생성한다.
func NewValidationError(field, message string, cause error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     cause,
	}
}

// CompileError: 아티팩트 렌더링 실패
type CompileError struct {
	Slug string
	Err  error
}

func (e CompileError) Error() string {
	return fmt.Sprintf("compile error slug=%s: %v", e.Slug, e.Err)
}

func (e CompileError) Unwrap() error { return e.Err }

// ServiceError: 내부 서비스 로직 에러
type ServiceError struct {
	Service   string // 서비스 이름
	Operation string // 작업 이름
	Err       error  // 원인 에러
}

func (e ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("service error service=%s operation=%s", e.Service, e.Operation)
	}
	return fmt.Sprintf("service error service=%s operation=%s: %v", e.Service, e.Operation, e.Err)
}

func (e ServiceError) Unwrap() error { return e.Err }

// NewServiceError: 서비스 에러를 생성한다.
func NewServiceError(service, operation string, cause error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Err:       cause,
	}
}

// IsValidation 은 에러 체인에 ValidationError 가 있는지 확인한다.
func IsValidation(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}
