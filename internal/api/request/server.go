package request

type CreateServer struct {
	Name     string  `json:"name" validate:"required,min=1,max=64"`
	Host     string  `json:"host" validate:"required,hostname|ip"`
	Port     int     `json:"port" validate:"omitempty,min=1,max=65535"`
	SSHUser  string  `json:"ssh_user,omitempty"`
	Type     string  `json:"type" validate:"required,oneof=pve pbs linux"`
	APIToken *string `json:"api_token,omitempty"`
}

type UpdateServer struct {
	Name     string  `json:"name" validate:"required,min=1,max=64"`
	Host     string  `json:"host" validate:"required,hostname|ip"`
	Port     int     `json:"port" validate:"omitempty,min=1,max=65535"`
	SSHUser  string  `json:"ssh_user,omitempty"`
	Type     string  `json:"type" validate:"required,oneof=pve pbs linux"`
	APIToken *string `json:"api_token,omitempty"`
}
