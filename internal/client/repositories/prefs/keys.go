package prefs

const (
	KeySelectedBoardID   = "selectedBoardId"
	KeyViewMode          = "viewMode"
	KeyActiveNavItem     = "activeNavItem"
	KeyTodoViewMode      = "todoViewMode"
	KeyTodoActiveNavItem = "todoActiveNavItem"
	KeyTheme             = "theme"
	KeyLanguage          = "language"
	// KeyAuthToken keeps the access token between CLI runs.
	KeyAuthToken = "authToken"
)

// BoardCacheKeys are dropped whenever the session changes hands.
var BoardCacheKeys = []string{
	KeySelectedBoardID,
	KeyViewMode,
	KeyActiveNavItem,
	KeyTodoViewMode,
	KeyTodoActiveNavItem,
}
