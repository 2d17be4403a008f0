package object

// PropertyHandler lets a host expose native state as script properties.
// GetProperty reports false to fall back to the object's own properties;
// SetProperty reports false to store the value as an ordinary property.
type PropertyHandler interface {
	GetProperty(name string) (Value, bool)
	SetProperty(name string, value Value) bool
}

// PropertyFuncs adapts a pair of functions to PropertyHandler. Either may
// be nil.
type PropertyFuncs struct {
	Get func(name string) (Value, bool)
	Set func(name string, value Value) bool
}

func (f PropertyFuncs) GetProperty(name string) (Value, bool) {
	if f.Get == nil {
		return nil, false
	}
	return f.Get(name)
}

func (f PropertyFuncs) SetProperty(name string, value Value) bool {
	if f.Set == nil {
		return false
	}
	return f.Set(name, value)
}
