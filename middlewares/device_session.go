package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-pos/utils"
)

const (
	DeviceCookie   = "pos_device"
	deviceTokenTTL = 180 * 24 * time.Hour
)

// DeviceSession identifies the browser behind customer requests. A missing
// or invalid cookie gets a fresh device id; there is no login.
func DeviceSession(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(DeviceCookie); err == nil && token != "" {
			if deviceID, err := utils.ParseDeviceToken(secret, token); err == nil {
				c.Set("device_id", deviceID)
				c.Next()
				return
			}
			utils.InfoLogger.Debugf("replacing invalid device cookie from %s", c.ClientIP())
		}

		deviceID, token, err := utils.NewDeviceToken(secret, deviceTokenTTL)
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			c.Abort()
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(DeviceCookie, token, int(deviceTokenTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
		c.Set("device_id", deviceID)
		c.Next()
	}
}
