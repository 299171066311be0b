package models

// Variant selects how a host definition is resolved.
type Variant int

const (
	StandardVariant Variant = iota
	InstallServerVariant
)

func (v Variant) String() string {
	switch v {
	case StandardVariant:
		return "standard"
	case InstallServerVariant:
		return "install-server"
	}
	return ""
}

func (v Variant) MarshalYAML() (any, error) {
	return v.String(), nil
}
