package models

type Role string

const (
	RoleMorador Role = "MORADOR"
	RoleAgente  Role = "AGENTE"
	RoleAdmin   Role = "ADMIN"
)

const (
	LoginPath            = "/login"
	RegisterPath         = "/register"
	DashboardMoradorPath = "/dashboard-morador"
	DashboardAgentePath  = "/dashboard-agente"
	EnviarDenunciaPath   = "/enviar-denuncia"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMorador, RoleAgente, RoleAdmin:
		return true
	}
	return false
}

// CanReview reports whether the role may list every denúncia and change statuses.
func (r Role) CanReview() bool {
	return r == RoleAgente || r == RoleAdmin
}

// Dashboard is the landing route after login.
func (r Role) Dashboard() string {
	if r.CanReview() {
		return DashboardAgentePath
	}
	return DashboardMoradorPath
}
