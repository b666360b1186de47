package windows

// Values of MEMORY_BASIC_INFORMATION.State and Protect.
const (
	memCommit    = 0x1000
	pageNoAccess = 0x01
	pageExecute  = 0x10
	pageGuard    = 0x100

	unreadable = pageNoAccess | pageExecute | pageGuard
)

// readableRegion reports whether a region in the given state with the given
// protection can be read without faulting.
func readableRegion(state, protect uint32) bool {
	return state == memCommit && protect != 0 && protect&unreadable == 0
}
