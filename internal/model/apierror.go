package model

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is an error returned to HTTP clients as a JSON body.
type APIError struct {
	Status  int
	Code    int
	Message string
	Errors  map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// MarshalJSON renders the client-facing body.
func (e *APIError) MarshalJSON() ([]byte, error) {
	body := struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Errors  map[string]any `json:"errors,omitempty"`
	}{e.Code, e.Message, e.Errors}
	return json.Marshal(body)
}

func newAPIError(status, code int, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

var (
	ErrUnauthorized       = newAPIError(http.StatusUnauthorized, 0, "401: Unauthorized")
	ErrInternal           = newAPIError(http.StatusInternalServerError, 0, "500: Internal Server Error")
	ErrUnknownApplication = newAPIError(http.StatusNotFound, 10002, "Unknown Application")
	ErrUnknownChannel     = newAPIError(http.StatusNotFound, 10003, "Unknown Channel")
	ErrUnknownGuild       = newAPIError(http.StatusNotFound, 10004, "Unknown Guild")
	ErrUnknownInvite      = newAPIError(http.StatusNotFound, 10006, "Unknown Invite")
	ErrUnknownMember      = newAPIError(http.StatusNotFound, 10007, "Unknown Member")
	ErrUnknownMessage     = newAPIError(http.StatusNotFound, 10008, "Unknown Message")
	ErrUnknownRole        = newAPIError(http.StatusNotFound, 10011, "Unknown Role")
	ErrUnknownUser        = newAPIError(http.StatusNotFound, 10013, "Unknown User")
	ErrUnknownEmoji       = newAPIError(http.StatusNotFound, 10014, "Unknown Emoji")
	ErrUnknownBan         = newAPIError(http.StatusNotFound, 10026, "Unknown Ban")
	ErrUnknownInteraction = newAPIError(http.StatusNotFound, 10062, "Unknown interaction")
	ErrUnknownCommand     = newAPIError(http.StatusNotFound, 10063, "Unknown application command")
	ErrMissingAccess      = newAPIError(http.StatusForbidden, 50001, "Missing Access")
	ErrMissingPermissions = newAPIError(http.StatusForbidden, 50013, "Missing Permissions")
	ErrCannotExecuteOnDM  = newAPIError(http.StatusForbidden, 50003, "Cannot execute action on a DM channel")
	ErrCannotEditOthers   = newAPIError(http.StatusForbidden, 50005, "Cannot edit a message authored by another user")
	ErrEmptyMessage       = newAPIError(http.StatusBadRequest, 50006, "Cannot send an empty message")
	ErrNonTextChannel     = newAPIError(http.StatusBadRequest, 50008, "Cannot send messages in a non-text channel")
	ErrCannotDMSelf       = newAPIError(http.StatusBadRequest, 50007, "Cannot send messages to this user")
	ErrInvalidRecipients  = newAPIError(http.StatusBadRequest, 50033, "Invalid Recipient(s)")
	ErrInvalidGuild       = newAPIError(http.StatusBadRequest, 50055, "Invalid Guild")
	ErrUserBanned         = newAPIError(http.StatusForbidden, 40007, "The user is banned from this guild.")
	ErrAlreadyResponded   = newAPIError(http.StatusBadRequest, 40060, "Interaction has already been acknowledged.")
	ErrInvalidMFACode     = newAPIError(http.StatusBadRequest, 60008, "Invalid two-factor code")
	ErrCannotFriendSelf   = newAPIError(http.StatusBadRequest, 80003, "Cannot send friend request to self")
	ErrAlreadyFriends     = newAPIError(http.StatusBadRequest, 80007, "You are already friends with that user.")
	ErrRequestBlocked     = newAPIError(http.StatusBadRequest, 80000, "Incoming friend requests disabled.")
	ErrRelationshipExists = newAPIError(http.StatusBadRequest, 10, "Relationship already exists")
	ErrPasswordMismatch   = newAPIError(http.StatusBadRequest, 6, "Password does not match")
	ErrEntityTooLarge     = newAPIError(http.StatusRequestEntityTooLarge, 40005, "Request entity too large")
	ErrInvalidJSON        = newAPIError(http.StatusBadRequest, 50109, "The request body contains invalid JSON.")
	ErrNotFoundRoute      = newAPIError(http.StatusNotFound, 0, "404: Not Found")
	ErrMethodNotAllowed   = newAPIError(http.StatusMethodNotAllowed, 0, "405: Method Not Allowed")
)

// Form error codes.
const (
	CodeBaseTypeRequired       = "BASE_TYPE_REQUIRED"
	CodeBaseTypeMaxLength      = "BASE_TYPE_MAX_LENGTH"
	CodeBaseTypeBadLength      = "BASE_TYPE_BAD_LENGTH"
	CodeBaseTypeChoices        = "BASE_TYPE_CHOICES"
	CodeURLTypeInvalidScheme   = "URL_TYPE_INVALID_SCHEME"
	CodeDateTimeTypeParse      = "DATE_TIME_TYPE_PARSE"
	CodeNumberTypeMax          = "NUMBER_TYPE_MAX"
	CodeNumberTypeCoerce       = "NUMBER_TYPE_COERCE"
	CodeEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	CodeUsernameTooManyUsers   = "USERNAME_TOO_MANY_USERS"
	CodeInvalidLogin           = "INVALID_LOGIN"
	CodePasswordDoesNotMatch   = "PASSWORD_DOES_NOT_MATCH"
	CodeBooleanTypeCoerce      = "BOOLEAN_TYPE_COERCE"
	CodeInteractionOption      = "INTERACTION_APPLICATION_COMMAND_INVALID_OPTION"
	CodeRepliesUnknownMessage  = "REPLIES_UNKNOWN_MESSAGE"
	CodeListItemValueRequired  = "LIST_ITEM_VALUE_REQUIRED"
)

// FormErrors collects validation failures keyed by dotted path, e.g.
// "embeds.0.title".
type FormErrors struct {
	fields map[string][]fieldError
}

type fieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Add records a failure at path.
func (f *FormErrors) Add(path, code, message string) {
	if f.fields == nil {
		f.fields = make(map[string][]fieldError)
	}
	f.fields[path] = append(f.fields[path], fieldError{Code: code, Message: message})
}

// Empty reports whether nothing has been recorded.
func (f *FormErrors) Empty() bool {
	return len(f.fields) == 0
}

// Paths returns recorded paths in sorted order.
func (f *FormErrors) Paths() []string {
	paths := make([]string, 0, len(f.fields))
	for p := range f.fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Err returns nil when empty, otherwise an Invalid Form Body error.
func (f *FormErrors) Err() error {
	if f.Empty() {
		return nil
	}
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    50035,
		Message: "Invalid Form Body",
		Errors:  f.tree(),
	}
}

func (f *FormErrors) tree() map[string]any {
	root := make(map[string]any)
	for path, errs := range f.fields {
		node := root
		for _, part := range strings.Split(path, ".") {
			next, ok := node[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				node[part] = next
			}
			node = next
		}
		node["_errors"] = errs
	}
	return root
}

// InvalidForm is a shortcut for a single failing field.
func InvalidForm(path, code, message string) error {
	var fe FormErrors
	fe.Add(path, code, message)
	return fe.Err()
}
