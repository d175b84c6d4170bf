package clipboard

import "errors"

// ErrEmpty is returned when the clipboard holds no data of the asked format.
var ErrEmpty = errors.New("clipboard does not contain image data")
