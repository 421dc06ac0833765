package storefrontserver

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

var errMissingValue = errors.New("value is required")

// pathString binds a required simple-style path parameter.
func pathString(c *gin.Context, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &value, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err == nil && value == "" {
		err = errMissingValue
	}
	if err != nil {
		invalidParam(c, name, err)
		return "", false
	}
	return value, true
}

// queryInt binds an optional form-style integer query parameter, returning def when absent.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	var value *int
	if err := runtime.BindQueryParameter("form", true, false, name, c.Request.URL.Query(), &value); err != nil {
		invalidParam(c, name, err)
		return 0, false
	}
	if value == nil {
		return def, true
	}
	return *value, true
}
