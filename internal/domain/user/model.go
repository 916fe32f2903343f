package user

import "time"

type Role string

const (
	RoleMonitor     Role = "monitor"
	RoleCoordinator Role = "coordenador"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMonitor, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID             int64      `gorm:"column:id;primaryKey"`
	Username       string     `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash   string     `gorm:"column:senha_hash;not null"`
	Name           string     `gorm:"column:nome;not null"`
	Email          *string    `gorm:"column:email"`
	Role           Role       `gorm:"column:perfil;not null"`
	Active         bool       `gorm:"column:ativo;not null;default:true"`
	FailedAttempts int        `gorm:"column:tentativas_falhas;not null;default:0"`
	LockedUntil    *time.Time `gorm:"column:bloqueado_ate"`
	LastLogin      *time.Time `gorm:"column:ultimo_login"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "usuario" }

// Locked reports whether a failed-login lock is still in force at now.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

type RefreshToken struct {
	ID        int64      `gorm:"column:id;primaryKey"`
	UserID    int64      `gorm:"column:usuario_id;not null"`
	TokenHash string     `gorm:"column:token_hash;not null;uniqueIndex"`
	ExpiresAt time.Time  `gorm:"column:expira_em;not null"`
	RevokedAt *time.Time `gorm:"column:revogado_em"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (RefreshToken) TableName() string { return "refresh_token" }

type SystemLog struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	UserID    *int64    `gorm:"column:usuario_id"`
	Action    string    `gorm:"column:acao;not null"`
	Detail    string    `gorm:"column:detalhe"`
	IP        string    `gorm:"column:ip"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (SystemLog) TableName() string { return "log_sistema" }

const (
	ActionLogin          = "login"
	ActionLoginFailed    = "login_falha"
	ActionLogout         = "logout"
	ActionRegister       = "registro"
	ActionPasswordChange = "troca_senha"
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}

func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
}

type TokenPair struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int64    `json:"expiresIn"`
	User         Identity `json:"user"`
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}
