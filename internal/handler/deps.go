package handler

import (
	"relaychat/internal/app/relay"
	"relaychat/internal/app/store"
	"relaychat/internal/configs"
)

type AppDeps struct {
	Engine *relay.Engine
	Store  store.Store
	Config *configs.AppConfig
}
