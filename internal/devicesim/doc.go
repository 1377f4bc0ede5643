// Package devicesim is a stand-in for the power monitor firmware's
// WebSocket endpoint.
//
// It accepts sessions on /ws, answers "ping" with "pong", streams encoded
// sensor frames on a fixed period, reports Wi-Fi and switch state and loops
// received terminal input back as UART data.
package devicesim
