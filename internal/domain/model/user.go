package model

// ユーザー本体は認証サービス側で管理する。ここではJWTのroleだけ扱う。
type Role string

const (
	RoleFarmer   Role = "FARMER"
	RoleConsumer Role = "CONSUMER"
)
