// Package contract holds the ports that Valtimo modules use to talk to each
// other and to external systems. Modules depend on these interfaces only;
// implementations live in the infrastructure layer.
package contract
