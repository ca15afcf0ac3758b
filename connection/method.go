package connection

import (
	"net/http"
	"strconv"
	"strings"
)

// Method is an HTTP method from the embedded client method set. Only a
// subset can be sent by an HTTPConnection; see Supported.
type Method int

const (
	MethodGet Method = iota
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodConnect
	MethodOptions
	MethodTrace
	MethodPatch
	MethodCopy
	MethodLock
	MethodMkCol
	MethodMove
	MethodPropFind
	MethodPropPatch
	MethodSearch
	MethodUnlock
	MethodBind
	MethodRebind
	MethodUnbind
	MethodACL
	MethodReport
	MethodMkActivity
	MethodCheckout
	MethodMerge
	MethodMSearch
	MethodNotify
	MethodSubscribe
	MethodUnsubscribe
	MethodPurge
	MethodMkCalendar
	MethodLink
	MethodUnlink
)

var methodNames = [...]string{
	MethodGet:         "GET",
	MethodHead:        "HEAD",
	MethodPost:        "POST",
	MethodPut:         "PUT",
	MethodDelete:      "DELETE",
	MethodConnect:     "CONNECT",
	MethodOptions:     "OPTIONS",
	MethodTrace:       "TRACE",
	MethodPatch:       "PATCH",
	MethodCopy:        "COPY",
	MethodLock:        "LOCK",
	MethodMkCol:       "MKCOL",
	MethodMove:        "MOVE",
	MethodPropFind:    "PROPFIND",
	MethodPropPatch:   "PROPPATCH",
	MethodSearch:      "SEARCH",
	MethodUnlock:      "UNLOCK",
	MethodBind:        "BIND",
	MethodRebind:      "REBIND",
	MethodUnbind:      "UNBIND",
	MethodACL:         "ACL",
	MethodReport:      "REPORT",
	MethodMkActivity:  "MKACTIVITY",
	MethodCheckout:    "CHECKOUT",
	MethodMerge:       "MERGE",
	MethodMSearch:     "M-SEARCH",
	MethodNotify:      "NOTIFY",
	MethodSubscribe:   "SUBSCRIBE",
	MethodUnsubscribe: "UNSUBSCRIBE",
	MethodPurge:       "PURGE",
	MethodMkCalendar:  "MKCALENDAR",
	MethodLink:        "LINK",
	MethodUnlink:      "UNLINK",
}

// supportedMethods maps the sendable methods to their net/http names.
var supportedMethods = map[Method]string{
	MethodGet:     http.MethodGet,
	MethodHead:    http.MethodHead,
	MethodPost:    http.MethodPost,
	MethodPut:     http.MethodPut,
	MethodDelete:  http.MethodDelete,
	MethodConnect: http.MethodConnect,
	MethodOptions: http.MethodOptions,
	MethodTrace:   http.MethodTrace,
	MethodPatch:   http.MethodPatch,
}

// String returns the wire name of the method.
func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "Method(" + strconv.Itoa(int(m)) + ")"
	}
	return methodNames[m]
}

// Supported reports whether an HTTPConnection can send m.
func (m Method) Supported() bool {
	_, ok := supportedMethods[m]
	return ok
}

func (m Method) httpMethod() (string, bool) {
	name, ok := supportedMethods[m]
	return name, ok
}

// ParseMethod looks up a method by its wire name, case-insensitively.
func ParseMethod(name string) (Method, bool) {
	upper := strings.ToUpper(name)
	for m, n := range methodNames {
		if n == upper {
			return Method(m), true
		}
	}
	return 0, false
}
