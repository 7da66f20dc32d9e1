/*
Package ports defines the driven and driving ports (interfaces) of the tally engine.

These interfaces decouple the calculator core from its storage backends and
from the presentation layers that drive it.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading sessions (modes + history).
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - Calculator: The session-aware surface used by the HTTP and MCP adapters.
*/
package ports
