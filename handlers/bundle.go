package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups the HTTP handlers the router needs.
type HandlerBundle struct {
	PostMessageHandler gin.HandlerFunc
	HealthHandler      gin.HandlerFunc
}
