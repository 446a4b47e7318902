// Package bridge connects the fingerprint controller to MQTT.
//
// Lifecycle commands arrive on fodhal/command/{name}, are dispatched to
// the controller one at a time in arrival order, and every command is
// acknowledged on fodhal/ack/{name} with its handled outcome. Controller
// events fan out to the history store, InfluxDB telemetry, the websocket
// hub and fodhal/event/{type}; translated finger notifications for
// downstream consumers go to fodhal/event/finger.
//
// The bridge is the single writer to the controller's lifecycle surface —
// the dispatch worker serializes all commands, which is what keeps the
// press/release brightness pairing coherent.
package bridge
