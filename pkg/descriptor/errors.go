package descriptor

import "fmt"

// InvalidDefinitionError reports a definition that cannot be built.
// Location names the offending declaration, such as "Controller.action".
type InvalidDefinitionError struct {
	Descriptor Descriptor
	Location   string
	Msg        string
}

func NewInvalidDefinitionError(d Descriptor, location, format string, args ...any) *InvalidDefinitionError {
	return &InvalidDefinitionError{Descriptor: d, Location: location, Msg: fmt.Sprintf(format, args...)}
}

func (e *InvalidDefinitionError) Error() string {
	if e.Location != "" {
		return e.Msg + " (" + e.Location + ")"
	}
	return e.Msg
}

// DefinitionNotFoundError reports a lookup that matched nothing.
type DefinitionNotFoundError struct {
	Descriptor Descriptor
}

func (e *DefinitionNotFoundError) Error() string {
	return fmt.Sprintf("no %s named %s found", e.Descriptor.DefType(), e.Descriptor.QualifiedName())
}

// NoAccessError reports a reference rejected by the access policy.
type NoAccessError struct {
	Target    Descriptor
	Namespace string
	Referrer  Descriptor
}

func (e *NoAccessError) Error() string {
	return fmt.Sprintf("access to %s '%s' from namespace '%s' in '%s(%s)' disallowed by access policy",
		kindName(e.Target.DefType()), e.Target.DescriptorName(), e.Namespace,
		e.Referrer.QualifiedName(), e.Referrer.DefType())
}

func kindName(t DefType) string {
	switch t {
	case Controller:
		return "controller"
	case Component:
		return "component"
	case Action:
		return "action"
	default:
		return "type"
	}
}
