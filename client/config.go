package client

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Format selects the media type used for Content-Type and Accept, and whether
// response bodies are decoded as JSON.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

func (f Format) mediaType() string {
	switch f {
	case FormatXML:
		return "application/xml"
	default:
		return "application/json"
	}
}

const defaultProtocol = "http"

// Config holds the static settings of a [Client]. Host, Name, Version, User
// and APIKey are required; APIKey is the hex-encoded HMAC key.
type Config struct {
	Protocol string `json:"protocol" validate:"omitempty,oneof=http https"`
	Host     string `json:"host"     validate:"required"`
	Name     string `json:"name"     validate:"required"`
	Version  string `json:"version"  validate:"required"`
	User     string `json:"user"     validate:"required"`
	APIKey   string `json:"apiKey"   validate:"required,hexadecimal"`
	Format   Format `json:"format"   validate:"omitempty,oneof=json xml"`
	Debug    bool   `json:"debug"`
	DryRun   bool   `json:"dryRun"`
}

// withDefaults returns a copy of cfg with empty optional fields filled in.
func (cfg Config) withDefaults() Config {
	if cfg.Protocol == "" {
		cfg.Protocol = defaultProtocol
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}

	return cfg
}

// BaseURL returns protocol://host/name/vVERSION/.
func (cfg Config) BaseURL() string {
	cfg = cfg.withDefaults()
	return fmt.Sprintf("%s://%s/%s/v%s/", cfg.Protocol, cfg.Host, cfg.Name, cfg.Version)
}

var (
	endpointFields   = []string{"host", "name", "version"}
	credentialFields = []string{"user", "apiKey"}
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("client: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// Validate checks cfg. Missing endpoint fields are reported before missing
// credentials, which are reported before any other problem.
func (cfg Config) Validate() error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return err
	}

	fields := make(FieldErrors, 0, len(verrors))
	for _, verror := range verrors {
		fields = append(fields, FieldError{
			Field: verror.Field(),
			Err:   customErrForTag(verror.Tag(), verror),
			tag:   verror.Tag(),
		})
	}

	if missing := fields.missing(endpointFields); len(missing) > 0 {
		return &ConfigError{Err: ErrMissingEndpointConfig, Fields: missing}
	}
	if missing := fields.missing(credentialFields); len(missing) > 0 {
		return &ConfigError{Err: ErrMissingCredentials, Fields: missing}
	}

	return &ConfigError{Err: ErrInvalidConfig, Fields: fields}
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	default:
		return verror.Translate(translator)
	}
}

// FieldError represents a single validation error for a specific field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
	tag   string
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// Error implements the error interface, returning a human-readable
// summary of all field errors.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

// Fields returns the names of the fields that failed validation.
func (fe FieldErrors) Fields() []string {
	out := make([]string, len(fe))
	for i, f := range fe {
		out[i] = f.Field
	}
	return out
}

// missing returns the "required" failures among names.
func (fe FieldErrors) missing(names []string) FieldErrors {
	var out FieldErrors
	for _, f := range fe {
		if f.tag == "required" && slices.Contains(names, f.Field) {
			out = append(out, f)
		}
	}
	return out
}
