package service

import "github.com/yndnr/lwm2m-seccfg/internal/core/domain"

type builtinObject struct {
	id        int
	name      string
	multiple  bool
	mandatory bool
	resources map[int]string
}

// Core OMA objects 0..7.
var builtinObjects = []builtinObject{
	{0, "LWM2M Security", true, true, map[int]string{
		0: "LWM2M Server URI", 1: "Bootstrap-Server", 2: "Security Mode",
		3: "Public Key or Identity", 4: "Server Public Key", 5: "Secret Key",
		10: "Short Server ID", 11: "Client Hold Off Time", 12: "Bootstrap-Server Account Timeout",
	}},
	{1, "LwM2M Server", true, true, map[int]string{
		0: "Short Server ID", 1: "Lifetime", 2: "Default Minimum Period", 3: "Default Maximum Period",
		5: "Disable Timeout", 6: "Notification Storing When Disabled or Offline", 7: "Binding",
		8: "Registration Update Trigger",
	}},
	{2, "LwM2M Access Control", true, false, map[int]string{
		0: "Object ID", 1: "Object Instance ID", 2: "ACL", 3: "Access Control Owner",
	}},
	{3, "Device", false, true, map[int]string{
		0: "Manufacturer", 1: "Model Number", 2: "Serial Number", 3: "Firmware Version", 4: "Reboot",
		9: "Battery Level", 10: "Memory Free", 11: "Error Code", 13: "Current Time",
		16: "Supported Binding and Modes", 17: "Device Type", 19: "Software Version",
	}},
	{4, "Connectivity Monitoring", false, false, map[int]string{
		0: "Network Bearer", 1: "Available Network Bearer", 2: "Radio Signal Strength",
		3: "Link Quality", 4: "IP Addresses", 7: "APN", 8: "Cell ID",
	}},
	{5, "Firmware Update", false, false, map[int]string{
		0: "Package", 1: "Package URI", 2: "Update", 3: "State", 5: "Update Result",
		6: "PkgName", 7: "PkgVersion",
	}},
	{6, "Location", false, false, map[int]string{
		0: "Latitude", 1: "Longitude", 2: "Altitude", 3: "Radius", 5: "Timestamp", 6: "Speed",
	}},
	{7, "Connectivity Statistics", false, false, map[int]string{
		0: "SMS Tx Counter", 1: "SMS Rx Counter", 2: "Tx Data", 3: "Rx Data", 6: "Start", 7: "Stop",
	}},
}

// BuiltinObjects returns the core objects, each with instance 0.
func BuiltinObjects() []domain.ObjectLwM2M {
	out := make([]domain.ObjectLwM2M, 0, len(builtinObjects))
	for _, b := range builtinObjects {
		res := make([]domain.ResourceLwM2M, 0, len(b.resources))
		for id := 0; id <= 64; id++ {
			if name, ok := b.resources[id]; ok {
				res = append(res, domain.ResourceLwM2M{ID: id, Name: name})
			}
		}
		out = append(out, domain.ObjectLwM2M{
			ID:        b.id,
			Name:      b.name,
			Multiple:  b.multiple,
			Mandatory: b.mandatory,
			Instances: []domain.Instance{{ID: 0, Resources: res}},
		})
	}
	return out
}
