package errors

// User-friendly error messages
const (
	MsgRoomNotFound       = "Escape room not found. It may have been removed or renamed."
	MsgServiceUnavailable = "We're unable to load the room directory right now. Please try again in a few minutes."
	MsgSourceError        = "The room directory returned an unexpected response. Please try again later."
	MsgCacheUnavailable   = "The cache is currently unavailable."
	MsgRateLimited        = "You're browsing too quickly! Please wait a moment and try again."
	MsgInvalidParameters  = "The provided parameters are invalid. Please check your input and try again."
	MsgNotFound           = "The requested resource does not exist."
	MsgInternalError      = "Something went wrong on our end. Please try again later."
)
