// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tangotest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/tango/lib/tango"
)

// Fixtures describes extra devices and free-object properties. It is
// read from JSONC, so fixture files may carry comments:
//
//	{
//	    // A motor with one writable position.
//	    "devices": [{
//	        "name": "sys/motor/1",
//	        "class": "Motor",
//	        "attributes": [
//	            {"name": "position", "type": "DevDouble", "writable": true, "value": ["1.5"], "unit": "mm"}
//	        ],
//	        "commands": [{"name": "Stop", "in": "DevVoid", "out": "DevVoid"}],
//	        "properties": {"velocity": ["2.5"]}
//	    }],
//	    "objects": {"Beamline": {"energy": ["12.4"]}}
//	}
type Fixtures struct {
	Devices []DeviceFixture                `json:"devices"`
	Objects map[string]map[string][]string `json:"objects"`
}

// DeviceFixture is one device. State defaults to ON.
type DeviceFixture struct {
	Name       string              `json:"name"`
	Class      string              `json:"class"`
	State      string              `json:"state"`
	Commands   []CommandFixture    `json:"commands"`
	Attributes []AttributeFixture  `json:"attributes"`
	Properties map[string][]string `json:"properties"`
}

// CommandFixture is one command. With Result set the command always
// returns that value, parsed as Out. Otherwise In and Out must be
// equal, and the command echoes its argument, or Out must be DevVoid.
type CommandFixture struct {
	Name   string   `json:"name"`
	In     string   `json:"in"`
	Out    string   `json:"out"`
	Result []string `json:"result"`
}

// AttributeFixture is one attribute. Type is the element kind, e.g.
// "DevDouble"; Format is SCALAR (the default) or SPECTRUM. Value holds
// the initial value as text, one string per element.
type AttributeFixture struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Format      string   `json:"format"`
	Writable    bool     `json:"writable"`
	Value       []string `json:"value"`
	Unit        string   `json:"unit"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
}

// ParseFixtures parses JSONC fixture data.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fixtures Fixtures
	if err := json.Unmarshal(jsonc.ToJSON(data), &fixtures); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	return &fixtures, nil
}

// LoadFixtures reads and parses a JSONC fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	fixtures, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fixtures, nil
}

// Load adds the fixtures' devices and stores their properties. A
// device with the name of an existing one replaces it. Nothing is
// added if any device fails to build.
func (library *Library) Load(ctx context.Context, fixtures *Fixtures) error {
	devices := make([]*device, 0, len(fixtures.Devices))
	for _, fixture := range fixtures.Devices {
		dev, err := fixture.build()
		if err != nil {
			return err
		}
		devices = append(devices, dev)
	}
	for _, dev := range devices {
		library.addDevice(dev)
	}

	for _, fixture := range fixtures.Devices {
		object := Object{Device: true, Name: deviceName(fixture.Name)}
		for name, values := range fixture.Properties {
			if err := library.store.Put(ctx, object, name, values); err != nil {
				return fmt.Errorf("storing property %q of %s: %w", name, object, err)
			}
		}
	}
	for objectName, properties := range fixtures.Objects {
		object := Object{Name: objectName}
		for name, values := range properties {
			if err := library.store.Put(ctx, object, name, values); err != nil {
				return fmt.Errorf("storing property %q of %s: %w", name, object, err)
			}
		}
	}
	return nil
}

func (fixture DeviceFixture) build() (*device, error) {
	name := deviceName(fixture.Name)
	if strings.Count(name, "/") != 2 {
		return nil, fmt.Errorf("fixture device %q: want a domain/family/member name", fixture.Name)
	}
	state := tango.On
	if fixture.State != "" {
		parsed, err := tango.ParseDevState(fixture.State)
		if err != nil {
			return nil, fmt.Errorf("fixture device %s: %w", name, err)
		}
		state = parsed
	}
	class := fixture.Class
	if class == "" {
		class = "Simulated"
	}

	dev := newDevice(name, class, state)
	for _, command := range fixture.Commands {
		if err := command.addTo(dev); err != nil {
			return nil, fmt.Errorf("fixture device %s: command %s: %w", name, command.Name, err)
		}
	}
	for _, attr := range fixture.Attributes {
		if err := attr.addTo(dev); err != nil {
			return nil, fmt.Errorf("fixture device %s: attribute %s: %w", name, attr.Name, err)
		}
	}
	return dev, nil
}

func (fixture CommandFixture) addTo(dev *device) error {
	in, err := parseKindOrVoid(fixture.In)
	if err != nil {
		return err
	}
	out, err := parseKindOrVoid(fixture.Out)
	if err != nil {
		return err
	}
	info := tango.CommandInfo{Name: fixture.Name, InType: in, OutType: out}

	switch {
	case fixture.Result != nil:
		result, err := tango.ParseCommandValue(out, fixture.Result)
		if err != nil {
			return err
		}
		dev.addCommand(info, func(*device, tango.CommandValue) (tango.CommandValue, error) {
			return result, nil
		})
	case in == out:
		dev.addEcho(fixture.Name, in)
	case out == tango.KindVoid:
		dev.addCommand(info, func(*device, tango.CommandValue) (tango.CommandValue, error) {
			return tango.Void{}, nil
		})
	default:
		return fmt.Errorf("a %s command returning %s needs a result", in, out)
	}
	return nil
}

func (fixture AttributeFixture) addTo(dev *device) error {
	element, err := tango.ParseKind(fixture.Type)
	if err != nil {
		return err
	}
	format := tango.Scalar
	if fixture.Format != "" {
		if format, err = tango.ParseAttrDataFormat(fixture.Format); err != nil {
			return err
		}
	}
	if format == tango.Image {
		return fmt.Errorf("IMAGE attributes cannot be loaded from fixtures")
	}
	value, err := tango.ParseAttrValue(element, format == tango.Spectrum, fixture.Value)
	if err != nil {
		return err
	}

	writeType := tango.Read
	if fixture.Writable {
		writeType = tango.ReadWrite
	}
	info := attributeInfo(fixture.Name, element, format, writeType)
	if fixture.Unit != "" {
		info.Unit = fixture.Unit
	}
	if fixture.Label != "" {
		info.Label = fixture.Label
	}
	if fixture.Description != "" {
		info.Description = fixture.Description
	}
	dev.addAttribute(info, value)
	return nil
}

func parseKindOrVoid(name string) (tango.Kind, error) {
	if name == "" {
		return tango.KindVoid, nil
	}
	return tango.ParseKind(name)
}
