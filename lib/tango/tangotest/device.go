// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tangotest

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
)

// device is one simulated device. All fields are guarded by the
// owning Library's mutex.
type device struct {
	name       string
	class      string
	state      tango.DevState
	status     string
	commands   map[string]*command
	attributes map[string]*attribute

	// lockOwner is the handle holding the device lock, or zero.
	lockOwner client.Handle
}

type command struct {
	info tango.CommandInfo
	run  func(dev *device, argin tango.CommandValue) (tango.CommandValue, error)
}

type attribute struct {
	info     tango.AttributeInfo
	value    tango.AttrValue
	setPoint tango.AttrValue
	quality  tango.AttrQuality

	// dynamic, when set, computes the value at read time.
	dynamic func(dev *device) tango.AttrValue
}

// newDevice returns a device with the State and Status commands and
// attributes every device server provides.
func newDevice(name, class string, state tango.DevState) *device {
	dev := &device{
		name:       name,
		class:      class,
		state:      state,
		status:     fmt.Sprintf("The device is in %s state.", state),
		commands:   make(map[string]*command),
		attributes: make(map[string]*attribute),
	}
	dev.addCommand(tango.CommandInfo{
		Name:        "State",
		InType:      tango.KindVoid,
		OutType:     tango.KindState,
		InTypeDesc:  "Uninitialised",
		OutTypeDesc: "Device state",
	}, func(dev *device, _ tango.CommandValue) (tango.CommandValue, error) {
		return dev.state, nil
	})
	dev.addCommand(tango.CommandInfo{
		Name:        "Status",
		InType:      tango.KindVoid,
		OutType:     tango.KindString,
		InTypeDesc:  "Uninitialised",
		OutTypeDesc: "Device status",
	}, func(dev *device, _ tango.CommandValue) (tango.CommandValue, error) {
		return tango.NewString(dev.status), nil
	})
	dev.attributes["state"] = &attribute{
		info:    readOnlyInfo("State", tango.KindState, tango.Scalar),
		quality: tango.QualityValid,
		dynamic: func(dev *device) tango.AttrValue { return dev.state },
	}
	dev.attributes["status"] = &attribute{
		info:    readOnlyInfo("Status", tango.KindString, tango.Scalar),
		quality: tango.QualityValid,
		dynamic: func(dev *device) tango.AttrValue { return tango.NewString(dev.status) },
	}
	return dev
}

func (dev *device) addCommand(info tango.CommandInfo, run func(*device, tango.CommandValue) (tango.CommandValue, error)) {
	dev.commands[strings.ToLower(info.Name)] = &command{info: info, run: run}
}

// addEcho adds a command that returns its argument.
func (dev *device) addEcho(name string, kind tango.Kind) {
	dev.addCommand(tango.CommandInfo{
		Name:        name,
		InType:      kind,
		OutType:     kind,
		InTypeDesc:  "Any " + kind.String() + " value",
		OutTypeDesc: "Echo of the argin value",
	}, func(_ *device, argin tango.CommandValue) (tango.CommandValue, error) {
		return argin, nil
	})
}

// addAttribute adds an attribute holding initial. Writable attributes
// start with their set point equal to the value.
func (dev *device) addAttribute(info tango.AttributeInfo, initial tango.AttrValue) {
	attr := &attribute{info: info, value: initial, quality: tango.QualityValid}
	if info.Writable.Writable() {
		attr.setPoint = initial
	}
	dev.attributes[strings.ToLower(info.Name)] = attr
}

func (dev *device) command(name string) (*command, error) {
	cmd, ok := dev.commands[strings.ToLower(name)]
	if !ok {
		return nil, failure(tango.ReasonCommandNotFound, dev.name+"::command_inout",
			"command %s not found", name)
	}
	return cmd, nil
}

func (dev *device) attribute(name string) (*attribute, error) {
	attr, ok := dev.attributes[strings.ToLower(name)]
	if !ok {
		return nil, failure(tango.ReasonAttrNotFound, dev.name+"::attribute",
			"attribute %s not found", name)
	}
	return attr, nil
}

// commandInfos returns the command descriptions sorted by name.
func (dev *device) commandInfos() []tango.CommandInfo {
	infos := make([]tango.CommandInfo, 0, len(dev.commands))
	for _, cmd := range dev.commands {
		infos = append(infos, cmd.info)
	}
	slices.SortFunc(infos, func(a, b tango.CommandInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}

// attributeInfos returns the attribute configurations sorted by name.
func (dev *device) attributeInfos() []tango.AttributeInfo {
	infos := make([]tango.AttributeInfo, 0, len(dev.attributes))
	for _, attr := range dev.attributes {
		infos = append(infos, attr.info)
	}
	slices.SortFunc(infos, func(a, b tango.AttributeInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}

// run executes a command after checking the argument kind.
func (dev *device) run(name string, argin tango.CommandValue) (tango.CommandValue, error) {
	cmd, err := dev.command(name)
	if err != nil {
		return nil, err
	}
	if argin.Kind() != cmd.info.InType {
		return nil, failure(tango.ReasonIncompatibleCmdArgumentType, dev.name+"::command_inout",
			"command %s expects %s, got %s", cmd.info.Name, cmd.info.InType, argin.Kind())
	}
	return cmd.run(dev, argin)
}

// reading returns an attribute's current reading. Writable attributes
// carry their set point in WrittenData.
func (dev *device) reading(attr *attribute, now time.Time) tango.AttributeData {
	value := attr.value
	if attr.dynamic != nil {
		value = attr.dynamic(dev)
	}
	data := tango.AttributeData{
		Name:      attr.info.Name,
		Data:      value,
		Format:    attr.info.DataFormat,
		Quality:   attr.quality,
		DimX:      tango.Len(value),
		TimeStamp: now,
	}
	if attr.info.DataFormat == tango.Scalar {
		data.DimX = 1
	}
	if attr.setPoint != nil {
		data.WrittenData = attr.setPoint
	}
	return data
}

// write stores a new value after checkWrite accepts it.
func (dev *device) write(data tango.AttributeData) error {
	attr, err := dev.checkWrite(data)
	if err != nil {
		return err
	}
	attr.store(data.Data)
	return nil
}

// checkWrite returns the attribute data names if it is writable and
// data has its shape.
func (dev *device) checkWrite(data tango.AttributeData) (*attribute, error) {
	attr, err := dev.attribute(data.Name)
	if err != nil {
		return nil, err
	}
	origin := dev.name + "::write_attribute"
	if !attr.info.Writable.Writable() {
		return nil, failure(tango.ReasonAttrNotWritable, origin, "attribute %s is not writable", attr.info.Name)
	}
	element, array := tango.Shape(data.Data)
	wantArray := attr.info.DataFormat != tango.Scalar
	if element != attr.info.DataType || array != wantArray {
		return nil, failure(tango.ReasonIncompatibleAttrDataType, origin,
			"attribute %s holds %s %s, got %s", attr.info.Name, attr.info.DataFormat, attr.info.DataType, data.Data.Kind())
	}
	if array && attr.info.MaxDimX > 0 && tango.Len(data.Data) > attr.info.MaxDimX {
		return nil, failure(tango.ReasonIncompatibleAttrDataType, origin,
			"attribute %s holds at most %d elements, got %d", attr.info.Name, attr.info.MaxDimX, tango.Len(data.Data))
	}
	return attr, nil
}

// store makes value both the reading and the set point.
func (attr *attribute) store(value tango.AttrValue) {
	attr.value = value
	attr.setPoint = value
}

// lockedAgainst reports a DevFailed if another connection holds the
// device lock.
func (dev *device) lockedAgainst(handle client.Handle, operation string) error {
	if dev.lockOwner != 0 && dev.lockOwner != handle {
		return failure(tango.ReasonDeviceLocked, dev.name+"::"+operation,
			"device %s is locked by another client", dev.name)
	}
	return nil
}

func readOnlyInfo(name string, element tango.Kind, format tango.AttrDataFormat) tango.AttributeInfo {
	return attributeInfo(name, element, format, tango.Read)
}

func attributeInfo(name string, element tango.Kind, format tango.AttrDataFormat, writable tango.AttrWriteType) tango.AttributeInfo {
	info := tango.AttributeInfo{
		Name:        name,
		Writable:    writable,
		DataFormat:  format,
		DataType:    element,
		MaxDimX:     1,
		Description: "No description",
		Label:       name,
		Format:      "%s",
		MinValue:    "Not specified",
		MaxValue:    "Not specified",
		MinAlarm:    "Not specified",
		MaxAlarm:    "Not specified",
		DispLevel:   tango.Operator,
	}
	switch format {
	case tango.Spectrum:
		info.MaxDimX = 4096
	case tango.Image:
		info.MaxDimX = 256
		info.MaxDimY = 256
	}
	if writable.Writable() {
		info.WritableAttrName = name
	} else {
		info.WritableAttrName = "None"
	}
	return info
}
