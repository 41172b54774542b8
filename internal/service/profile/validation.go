package profile

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/util"
	"github.com/TanHoangarc/Admin/pkg/errors"
)

const maxURLLength = 2048

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateProfile, domain.Profile{})
	return v
}

// validateProfile: 저장 직전 프로필 규칙. data: URL 이미지는 길이 제한에서 제외한다.
func validateProfile(sl validator.StructLevel) {
	p, ok := sl.Current().Interface().(domain.Profile)
	if !ok {
		return
	}
	v := sl.Validator()

	if utf8.RuneCountInString(p.Name) > constants.ProfileStoreConfig.MaxNameLength {
		sl.ReportError(p.Name, "name", "Name", "max", fmt.Sprint(constants.ProfileStoreConfig.MaxNameLength))
	}
	if !p.Status.IsValid() {
		sl.ReportError(p.Status, "status", "Status", "oneof", "active maintenance")
	}
	if p.LastActive != "" && v.Var(p.LastActive, "datetime="+util.DateLayout) != nil {
		sl.ReportError(p.LastActive, "lastActive", "LastActive", "datetime", util.DateLayout)
	}
	if p.Visits < 0 || p.Interactions < 0 {
		sl.ReportError(p.Visits, "visits", "Visits", "gte", "0")
	}

	for i, link := range p.SocialLinks {
		if tooLong(link.URL) {
			sl.ReportError(link.URL, fmt.Sprintf("socialLinks[%d].url", i), "URL", "max", fmt.Sprint(maxURLLength))
		}
	}
	for i, project := range p.Projects {
		if strings.TrimSpace(project.Name) == "" {
			sl.ReportError(project.Name, fmt.Sprintf("projects[%d].name", i), "Name", "required", "")
		}
	}
}

func tooLong(raw string) bool {
	if strings.HasPrefix(strings.ToLower(raw), "data:") {
		return false
	}
	return len(raw) > maxURLLength
}

// validate 는 검증 실패를 *errors.ValidationError 로 바꾼다.
func (s *Service) validate(p *domain.Profile) error {
	if strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.Slug) == "" {
		return errors.NewValidationError("name", "name or slug is required", errors.ErrMissingIdentity)
	}
	err := s.validator.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if stdErrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := "failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		return errors.NewValidationError(fe.Field(), msg, err)
	}
	return errors.NewValidationError("", err.Error(), err)
}
