// Package mqtt provides the MQTT client for fodhald.
//
// The daemon's caller-facing lifecycle surface rides on MQTT: the
// biometrics framework side publishes commands to fodhal/command/{name},
// the daemon acknowledges on fodhal/ack/{name} and publishes controller
// events and retained state under fodhal/event/ and fodhal/state/.
//
// This package wraps eclipse/paho.mqtt.golang with connection management,
// LWT-based offline detection, automatic re-subscription on reconnect,
// and panic-safe message handlers.
//
// # Topic hierarchy
//
//	fodhal/command/{press,release,show,hide,enroll_start,enroll_finish,long_press,acquired,error}
//	fodhal/ack/{command}
//	fodhal/event/{finger,controller}
//	fodhal/state/{geometry,controller}
//	fodhal/system/status
package mqtt
