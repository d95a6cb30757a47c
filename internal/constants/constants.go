package constants

// ContextKeyUserID is the key used for the authenticated user ID in both the
// session store and the gin context.
const ContextKeyUserID = "user_id"

// SessionCookieName is the cookie carrying the session ID.
const SessionCookieName = "gbase_session"

const MinPasswordLength = 8

// Pagination bounds
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Team size bounds (fixed product rule: 2-5 members)
const (
	MinTeamMembers = 2
	MaxTeamMembers = 5
)

// Feed listing bounds
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// DailySetSize is the number of quest slots generated per team per day.
const DailySetSize = 4

// DateLayout is the calendar-date format used for daily set keys.
const DateLayout = "2006-01-02"
