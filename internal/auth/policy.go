package auth

// Access is the role an operation requires.
type Access int

const (
	Authenticated Access = iota
	Public
	AdminOnly
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case AdminOnly:
		return "admin"
	}
	return "authenticated"
}

// Policy maps operation IDs to the access they require. Operations missing
// from the table require an authenticated caller.
type Policy map[string]Access

func (p Policy) For(operationID string) Access {
	if access, ok := p[operationID]; ok {
		return access
	}
	return Authenticated
}
