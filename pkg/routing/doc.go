// Package routing holds the gateway's forwarding rule table.
//
// A rule matches either an exact path or a path prefix, for one method or
// for any method. Exact rules are always tried before prefix rules, so a
// request for /api/tags hits a dedicated /api/tags rule even when an
// /api/ prefix rule was declared first. Matching is a pure function of
// the request method, path, and the table.
package routing
