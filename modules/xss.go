package modules

// XSSReflected implements the xss_reflected vulnerability module
type XSSReflected struct{}

// init registers the module
func init() {
	Register(&XSSReflected{})
}

// Info returns module metadata
func (m *XSSReflected) Info() ModuleInfo {
	return ModuleInfo{
		Name:        "xss_reflected",
		Key:         "v",
		Description: "Version string reflected into the page footer without encoding",
	}
}

// Handle substitutes the input for the footer version
func (m *XSSReflected) Handle(ctx *HandlerContext) (*Result, error) {
	return NewResult(ctx.Page.Prefix() + ctx.Page.PostfixWithVersion(ctx.Input)), nil
}
