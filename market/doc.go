// Package market fetches the landing page data of the trading platform:
// the best and worst performing stocks of the day and the latest
// transactions.
//
// Every fetch is one credentialed GET through the same gateway the auth
// screens use. Failures come back as *FetchError carrying the text the page
// shows in place of the list.
package market
