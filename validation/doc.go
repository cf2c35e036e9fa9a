// Package validation checks configuration and pipeline documents.
//
// Struct tags are checked with go-playground/validator; cross-field rules
// that tags cannot express are collected with a Validator. Both report an
// *errors.AppError with code VALIDATION_FAILED and per-field details.
//
//	type Section struct {
//	    Backend string `validate:"oneof=memory disk http"`
//	}
//	err := validation.Validate(section)
//
//	v := validation.New()
//	v.Custom(dir != "", "cache.dir", "is required for the disk backend")
//	err := v.Validate()
package validation
