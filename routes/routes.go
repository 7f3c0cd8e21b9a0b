package routes

import (
	"hive-server/realtime"
	"hive-server/services"
)

// Wired once from main before the server starts listening.
var (
	Chat          *services.ChatService
	Notifications *services.NotificationService
	Gateway       *realtime.Hub
)
