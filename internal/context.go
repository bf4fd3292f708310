package internal

type ContextKey string

const UserContextKey ContextKey = "user"
