package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("lwm2m_mode", func(fl validator.FieldLevel) bool {
		return SecurityMode(fl.Field().String()).IsValid()
	})
	return v
}

// Validate checks the document structure and the credentials of both servers
// and the client. All violations are returned in one ErrProfileValidation.
func (c *SecurityConfig) Validate() error {
	fields := make(map[string]string)
	collectStructErrors(structValidator.Struct(c), fields)
	collectServerCredentials(&c.Bootstrap, fields)

	rules := ClientCredentialRules(c.Client.Mode)
	if err := rules.SecretKey.Check(c.Client.Key()); err != nil {
		fields["client.key"] = ruleMessage(err)
	}
	if len(fields) > 0 {
		return ErrProfileValidation.WithFields(fields)
	}
	return nil
}

// Validate checks the profile structure and the credentials of both servers.
func (p *ProfileConfig) Validate() error {
	fields := make(map[string]string)
	collectStructErrors(structValidator.Struct(p), fields)
	collectServerCredentials(&p.Bootstrap, fields)
	if len(fields) > 0 {
		return ErrProfileValidation.WithFields(fields)
	}
	return nil
}

// ValidateServer checks one server config on its own.
func ValidateServer(s *ServerSecurityConfig) map[string]string {
	fields := make(map[string]string)
	collectStructErrors(structValidator.Struct(s), fields)
	collectCredentials("", s, fields)
	return fields
}

func collectServerCredentials(b *BootstrapSecurityConfig, fields map[string]string) {
	collectCredentials("bootstrap.bootstrapServer.", &b.BootstrapServer, fields)
	collectCredentials("bootstrap.lwm2mServer.", &b.LwM2MServer, fields)
}

func collectCredentials(prefix string, s *ServerSecurityConfig, fields map[string]string) {
	rules := ServerCredentialRules(s.SecurityMode)
	if err := rules.PublicKeyOrID.Check(s.ClientPublicKeyOrID); err != nil {
		fields[prefix+"clientPublicKeyOrId"] = ruleMessage(err)
	}
	if err := rules.SecretKey.Check(s.ClientSecretKey); err != nil {
		fields[prefix+"clientSecretKey"] = ruleMessage(err)
	}
}

func collectStructErrors(err error, fields map[string]string) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields[""] = err.Error()
		return
	}
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = tagMessage(fe)
	}
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "lwm2m_mode":
		return fmt.Sprintf("unknown security mode %q", fe.Value())
	default:
		return "failed " + fe.Tag()
	}
}

func ruleMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		if de.Details != "" {
			return de.Message + " " + de.Details
		}
		return de.Message
	}
	return err.Error()
}
