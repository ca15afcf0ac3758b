// Package component defines the lifecycle contract shared by the bridge
// and the echo server, and a registry that starts and stops them in order.
//
//   - Component: Start, Stop, Health
//   - Describable: startup summary descriptions
//   - RouteProvider: routes reported by servers
//   - BaseLazyComponent: double-checked lazy initialization
package component
