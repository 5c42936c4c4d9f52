package profile

// SecretKind selects which default secret DefaultSecret returns.
type SecretKind int

const (
	// EditSecret is the per-student edit password set at creation.
	EditSecret SecretKind = iota
	// AdminSecret is the admin password set by the first bootstrap.
	AdminSecret
)

// DefaultSecret is the one place fixed default secrets are defined.
//
// Both values are well known. Records created with them are only as safe as
// the operator who changes them afterwards.
func DefaultSecret(kind SecretKind) string {
	switch kind {
	case AdminSecret:
		return "admin123"
	default:
		return "123456789"
	}
}
