package main

import "github.com/thekim123/sns-maker-hub/internal/app"

// @title           SNS Maker Hub API
// @version         1.0
// @description     Координационный хаб: очередь задач для воркеров, привязка Telegram и сводка статуса для дашборда.

// @host      localhost:8000
// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	app.Run()
}
