package mapping

import (
	"fmt"
	"strings"

	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/protocol"
)

// MapFunctionToProtocol converts an internal Function model into an API
// exposable protocol Function.
func MapFunctionToProtocol(i *models.Function) protocol.Function {
	o := protocol.Function{}
	o.ID = i.GUID
	o.CreatedDate = i.CreatedDate
	o.CreatedBy = i.CreatedBy
	o.ModifiedDate = i.ModifiedDate
	o.ModifiedBy = i.ModifiedBy
	o.ChangeCount = i.ChangeCount
	o.ChangeToken = i.ChangeToken
	o.Name = i.Name
	o.Route = i.Route
	o.Language = i.Language
	o.Timeout = i.Timeout
	o.Runtime = i.Runtime
	o.Code = i.Code.String
	return o
}

// MapFunctionsToProtocol converts a resultset of internal Function models
// into a protocol FunctionResultset.
func MapFunctionsToProtocol(i *models.FunctionResultset) protocol.FunctionResultset {
	o := protocol.FunctionResultset{}
	o.TotalRows = i.TotalRows
	o.PageCount = i.PageCount
	o.PageNumber = i.PageNumber
	o.PageSize = i.PageSize
	o.PageRows = i.PageRows
	o.Functions = make([]protocol.Function, len(i.Functions))
	for idx := range i.Functions {
		o.Functions[idx] = MapFunctionToProtocol(&i.Functions[idx])
	}
	return o
}

// MapCreateFunctionRequestToModel converts an API create request into an
// internal Function model, applying defaults and validating enumerations.
func MapCreateFunctionRequestToModel(i *protocol.CreateFunctionRequest) (models.Function, error) {
	var o models.Function
	if err := validateName(i.Name); err != nil {
		return o, err
	}
	language, err := normalizeLanguage(i.Language)
	if err != nil {
		return o, err
	}
	runtime, err := normalizeRuntime(i.Runtime)
	if err != nil {
		return o, err
	}
	if i.Timeout < 0 {
		return o, fmt.Errorf("timeout must not be negative")
	}
	o.Name = i.Name
	o.Route = normalizeRoute(i.Route, i.Name)
	o.Language = language
	o.Timeout = i.Timeout
	o.Runtime = runtime
	o.Code = models.ToNullString(i.Code)
	return o, nil
}

// MapUpdateFunctionRequestToModel converts an API update request into an
// internal Function model carrying the fields an update may change.
func MapUpdateFunctionRequestToModel(i *protocol.UpdateFunctionRequest) (models.Function, error) {
	var o models.Function
	if err := validateName(i.Name); err != nil {
		return o, err
	}
	language, err := normalizeLanguage(i.Language)
	if err != nil {
		return o, err
	}
	runtime, err := normalizeRuntime(i.Runtime)
	if err != nil {
		return o, err
	}
	if i.Timeout < 0 {
		return o, fmt.Errorf("timeout must not be negative")
	}
	o.ChangeToken = i.ChangeToken
	o.Name = i.Name
	o.Route = normalizeRoute(i.Route, i.Name)
	o.Language = language
	o.Timeout = i.Timeout
	o.Runtime = runtime
	o.Code = models.ToNullString(i.Code)
	return o, nil
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return fmt.Errorf("function name is required")
	}
	if len(name) > 255 {
		return fmt.Errorf("function name must not exceed 255 characters")
	}
	return nil
}

func normalizeLanguage(language string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case models.LanguagePython:
		return models.LanguagePython, nil
	case models.LanguageNode:
		return models.LanguageNode, nil
	default:
		return "", fmt.Errorf("language must be %q or %q", models.LanguagePython, models.LanguageNode)
	}
}

func normalizeRuntime(runtime string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(runtime)) {
	case "":
		// The original API defaulted unset runtimes to standard docker.
		return models.RuntimeRunc, nil
	case models.RuntimeRunc:
		return models.RuntimeRunc, nil
	case models.RuntimeRunsc:
		return models.RuntimeRunsc, nil
	default:
		return "", fmt.Errorf("runtime must be %q or %q", models.RuntimeRunc, models.RuntimeRunsc)
	}
}

func normalizeRoute(route string, name string) string {
	r := strings.TrimSpace(route)
	if len(r) == 0 {
		r = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	}
	if !strings.HasPrefix(r, "/") {
		r = "/" + r
	}
	return r
}
