package mqtt

import "fmt"

// Topic prefixes for the fodhald MQTT surface.
//
// All topics use the flat scheme: fodhal/{category}/{name}
const (
	// TopicPrefix is the base for all fodhald topics.
	TopicPrefix = "fodhal"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "fodhal/system"
)

// Topics provides builders for fodhald MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	ackTopic := topics.Ack("press")
//	// Returns: "fodhal/ack/press"
type Topics struct{}

// Command returns the topic a lifecycle command is received on.
//
// Example: fodhal/command/press
func (Topics) Command(name string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, name)
}

// CommandWildcard returns the subscription pattern matching all commands.
func (Topics) CommandWildcard() string {
	return TopicPrefix + "/command/#"
}

// Ack returns the topic a command acknowledgement is published to.
//
// Example: fodhal/ack/press
func (Topics) Ack(name string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, name)
}

// Event returns the topic a controller event is published to.
//
// Example: fodhal/event/finger
func (Topics) Event(name string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, name)
}

// State returns the topic for retained controller state.
//
// Example: fodhal/state/geometry
func (Topics) State(name string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, name)
}

// SystemStatus returns the topic for daemon online/offline status.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
