// Package dispatch matches pending deliveries with idle carts.
//
// The Dispatcher owns the cart pool and a FIFO queue of deliveries. Carts
// are ranked by registration order: the first idle cart always wins. Every
// command is validated before anything changes so a rejected command leaves
// carts and queue untouched.
package dispatch
