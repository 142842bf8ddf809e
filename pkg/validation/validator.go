// Package validation checks operator input and configuration before any
// request reaches the emulator.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	// Node names may carry ONOS device id punctuation but never '/' or
	// whitespace, which would break link keys.
	nodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:\-]*$`)
	portPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("nodename", func(fl validator.FieldLevel) bool {
		return nodePattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("port", func(fl validator.FieldLevel) bool {
		return portPattern.MatchString(fl.Field().String())
	})
}

// FlowRequest asks for a light-path between two endpoints. A nil Channel
// means "draw one".
type FlowRequest struct {
	Source      string  `validate:"required,nodename"`
	Destination string  `validate:"required,nodename,nefield=Source"`
	Channel     *int    `validate:"omitempty,min=0"`
	Power       float64 `validate:"gte=-30,lte=30"` // dBm
}

// RoadmRequest is a manual cross-connect.
type RoadmRequest struct {
	Node     string `validate:"required,nodename"`
	Port1    string `validate:"required,port"`
	Port2    string `validate:"required,port,nefield=Port1"`
	Channels []int  `validate:"required,min=1,dive,min=0"`
}

// TerminalRequest is a manual transponder configuration.
type TerminalRequest struct {
	Node    string  `validate:"required,nodename"`
	EthPort string  `validate:"required,port"`
	WDMPort string  `validate:"required,port,nefield=EthPort"`
	Channel int     `validate:"min=0"`
	Power   float64 `validate:"gte=-30,lte=30"`
}

// ValidateFlowRequest checks req and that an explicit channel lies in
// [minChannel, maxChannel].
func ValidateFlowRequest(req *FlowRequest, minChannel, maxChannel int) error {
	if req == nil {
		return errors.New("flow request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if req.Channel != nil && (*req.Channel < minChannel || *req.Channel > maxChannel) {
		return fmt.Errorf("Channel: %d is outside [%d, %d]", *req.Channel, minChannel, maxChannel)
	}
	return nil
}

// ValidateRoadmRequest checks a manual cross-connect.
func ValidateRoadmRequest(req *RoadmRequest) error {
	if req == nil {
		return errors.New("roadm request cannot be nil")
	}
	return formatValidationError(validate.Struct(req))
}

// ValidateTerminalRequest checks a manual transponder configuration.
func ValidateTerminalRequest(req *TerminalRequest) error {
	if req == nil {
		return errors.New("terminal request cannot be nil")
	}
	return formatValidationError(validate.Struct(req))
}

// ValidateNodeName checks a single node name.
func ValidateNodeName(name string) error {
	if !nodePattern.MatchString(name) {
		return fmt.Errorf("node name %q is invalid", name)
	}
	return nil
}

func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	e := verrs[0]
	field, param := e.Field(), e.Param()
	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s: field is required", field)
	case "min", "gte":
		return fmt.Errorf("%s: must be at least %s", field, param)
	case "max", "lte":
		return fmt.Errorf("%s: must not exceed %s", field, param)
	case "nefield":
		return fmt.Errorf("%s: must differ from %s", field, param)
	case "nodename":
		return fmt.Errorf("%s: %q is not a valid node name", field, e.Value())
	case "port":
		return fmt.Errorf("%s: %q is not a valid port", field, e.Value())
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
	}
}
