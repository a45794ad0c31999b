package fail

import (
	"fmt"
	"github.com/cirruslabs/bucketcache/internal/envelope"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func Fail(c echo.Context, status int, format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)

	zap.L().Warn(message)

	failure := envelope.Failure(status, message)

	return c.JSON(status, &failure)
}
