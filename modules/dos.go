package modules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResourceExhaustion implements the resource_exhaustion vulnerability module
type ResourceExhaustion struct{}

// init registers the module
func init() {
	Register(&ResourceExhaustion{})
}

// Info returns module metadata
func (m *ResourceExhaustion) Info() ModuleInfo {
	return ModuleInfo{
		Name:        "resource_exhaustion",
		Key:         "size",
		Description: "Image resize emulation whose quadratic work has no upper bound",
	}
}

// Handle builds an n by n block of characters and reports the elapsed time
func (m *ResourceExhaustion) Handle(ctx *HandlerContext) (*Result, error) {
	size, err := strconv.Atoi(ctx.Input)
	if err != nil {
		return nil, fmt.Errorf("invalid size: %w", err)
	}

	start := time.Now()
	rows := make([]string, 0, max(size, 0))
	for i := 0; i < size; i++ {
		rows = append(rows, strings.Repeat("#", size))
	}
	_ = strings.Join(rows, "<br>")
	elapsed := time.Since(start).Seconds()

	content := fmt.Sprintf("<b>Time required</b> (to 'resize image' to %dx%d): %.6f seconds", size, size, elapsed)
	return NewResult(ctx.Page.Document(content)), nil
}
