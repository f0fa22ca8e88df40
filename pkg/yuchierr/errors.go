// Package yuchierr defines the closed set of failures Yuchi reports to the user.
//
// Every failure belongs to exactly one of five categories. Each category is its
// own type carrying a single message, and all of them implement Error. The
// rendered form is "<Category> Error: <message>".
package yuchierr

import (
	"errors"
	"fmt"
)

// Category identifies which part of Yuchi a failure came from.
type Category int

const (
	CategoryAPI Category = iota + 1
	CategoryConfig
	CategoryInput
	CategoryImage
	CategoryTool
)

// Categories lists every category in display order.
var Categories = []Category{CategoryAPI, CategoryConfig, CategoryInput, CategoryImage, CategoryTool}

func (c Category) String() string {
	switch c {
	case CategoryAPI:
		return "API"
	case CategoryConfig:
		return "Config"
	case CategoryInput:
		return "Input"
	case CategoryImage:
		return "Image"
	case CategoryTool:
		return "Tool"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Prefix returns the text placed before a message of category c.
func Prefix(c Category) string {
	return c.String() + " Error: "
}

// Error is implemented only by APIError, ConfigError, InputError, ImageError
// and ToolError.
type Error interface {
	error
	Category() Category
	Message() string
	yuchiError()
}

var (
	_ Error = APIError{}
	_ Error = ConfigError{}
	_ Error = InputError{}
	_ Error = ImageError{}
	_ Error = ToolError{}
)

// APIError is a failure talking to a remote API.
type APIError struct{ msg string }

func API(msg string) APIError                  { return APIError{msg: msg} }
func APIf(format string, args ...any) APIError { return API(fmt.Sprintf(format, args...)) }

func (e APIError) Error() string      { return Prefix(CategoryAPI) + e.msg }
func (e APIError) Category() Category { return CategoryAPI }
func (e APIError) Message() string    { return e.msg }
func (APIError) yuchiError()          {}

// ConfigError is a failure loading, saving or reading configuration.
type ConfigError struct{ msg string }

func Config(msg string) ConfigError                  { return ConfigError{msg: msg} }
func Configf(format string, args ...any) ConfigError { return Config(fmt.Sprintf(format, args...)) }

func (e ConfigError) Error() string      { return Prefix(CategoryConfig) + e.msg }
func (e ConfigError) Category() Category { return CategoryConfig }
func (e ConfigError) Message() string    { return e.msg }
func (ConfigError) yuchiError()          {}

// InputError is invalid input from the user.
type InputError struct{ msg string }

func Input(msg string) InputError                  { return InputError{msg: msg} }
func Inputf(format string, args ...any) InputError { return Input(fmt.Sprintf(format, args...)) }

func (e InputError) Error() string      { return Prefix(CategoryInput) + e.msg }
func (e InputError) Category() Category { return CategoryInput }
func (e InputError) Message() string    { return e.msg }
func (InputError) yuchiError()          {}

// ImageError is a failure reading or encoding an image.
type ImageError struct{ msg string }

func Image(msg string) ImageError                  { return ImageError{msg: msg} }
func Imagef(format string, args ...any) ImageError { return Image(fmt.Sprintf(format, args...)) }

func (e ImageError) Error() string      { return Prefix(CategoryImage) + e.msg }
func (e ImageError) Category() Category { return CategoryImage }
func (e ImageError) Message() string    { return e.msg }
func (ImageError) yuchiError()          {}

// ToolError is a failure running an external command.
type ToolError struct{ msg string }

func Tool(msg string) ToolError                  { return ToolError{msg: msg} }
func Toolf(format string, args ...any) ToolError { return Tool(fmt.Sprintf(format, args...)) }

func (e ToolError) Error() string      { return Prefix(CategoryTool) + e.msg }
func (e ToolError) Category() Category { return CategoryTool }
func (e ToolError) Message() string    { return e.msg }
func (ToolError) yuchiError()          {}

// As returns the taxonomy error in err's chain, if any.
func As(err error) (Error, bool) {
	var ye Error
	if errors.As(err, &ye) {
		return ye, true
	}
	return nil, false
}

// CategoryOf reports the category of the taxonomy error in err's chain.
func CategoryOf(err error) (Category, bool) {
	ye, ok := As(err)
	if !ok {
		return 0, false
	}
	return ye.Category(), true
}

// IsCategory reports whether err's chain holds a taxonomy error of category c.
func IsCategory(err error, c Category) bool {
	got, ok := CategoryOf(err)
	return ok && got == c
}
