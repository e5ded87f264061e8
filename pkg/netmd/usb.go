package netmd

import (
	"errors"
	"fmt"

	"github.com/google/gousb"

	"github.com/hansbonini/mdtools/pkg/common"
)

// ErrNoDevice is returned when no known device is attached at the given index
var ErrNoDevice = errors.New(common.ErrNoDeviceFound)

const vendorInterfaceRequest = gousb.ControlVendor | gousb.ControlInterface

// USBTransport is a Transport over libusb
type USBTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	done func()
	in   *gousb.InEndpoint
	out  *gousb.OutEndpoint
}

// DeviceInfo describes an attached known device
type DeviceInfo struct {
	DeviceID
	Manufacturer string
	ProductName  string
	Bus          int
	Address      int
}

func isKnownDevice(desc *gousb.DeviceDesc) bool {
	_, ok := LookupDevice(uint16(desc.Vendor), uint16(desc.Product))
	return ok
}

// ListDevices enumerates the attached known devices
func ListDevices() ([]DeviceInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(isKnownDevice)
	defer func() {
		for _, d := range devs {
			d.Close()
		}
	}()
	if err != nil && len(devs) == 0 {
		return nil, err
	}

	infos := make([]DeviceInfo, 0, len(devs))
	for _, d := range devs {
		id, _ := LookupDevice(uint16(d.Desc.Vendor), uint16(d.Desc.Product))
		info := DeviceInfo{DeviceID: id, Bus: d.Desc.Bus, Address: d.Desc.Address}
		info.Manufacturer, _ = d.Manufacturer()
		info.ProductName, _ = d.Product()
		infos = append(infos, info)
	}
	return infos, nil
}

// OpenUSB opens the index-th attached known device and returns a Link on it
func OpenUSB(index int) (*Link, error) {
	ctx := gousb.NewContext()
	devs, err := ctx.OpenDevices(isKnownDevice)
	if index < 0 || index >= len(devs) {
		for _, d := range devs {
			d.Close()
		}
		ctx.Close()
		if err != nil {
			return nil, common.FormatError(common.ErrFailedToOpenDevice, err)
		}
		return nil, fmt.Errorf("%w (index %d, %d attached)", ErrNoDevice, index, len(devs))
	}
	for i, d := range devs {
		if i != index {
			d.Close()
		}
	}
	dev := devs[index]

	t, err := newUSBTransport(ctx, dev)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, common.FormatError(common.ErrFailedToOpenDevice, err)
	}

	vendor, product := uint16(dev.Desc.Vendor), uint16(dev.Desc.Product)
	id, _ := LookupDevice(vendor, product)
	common.LogInfo(common.InfoDeviceOpened, id.Name, vendor, product)

	link := NewLink(t, vendor, product, id.Name)
	if err := link.Init(); err != nil {
		link.Close()
		return nil, common.FormatError(common.ErrFailedToOpenDevice, err)
	}
	return link, nil
}

func newUSBTransport(ctx *gousb.Context, dev *gousb.Device) (*USBTransport, error) {
	if err := dev.SetAutoDetach(true); err != nil {
		common.LogDebug("Auto detach not available: %v", err)
	}
	intf, done, err := dev.DefaultInterface()
	if err != nil {
		return nil, err
	}
	in, err := intf.InEndpoint(BulkReadEndpoint & 0x7f)
	if err != nil {
		done()
		return nil, err
	}
	out, err := intf.OutEndpoint(BulkWriteEndpoint)
	if err != nil {
		done()
		return nil, err
	}
	return &USBTransport{ctx: ctx, dev: dev, done: done, in: in, out: out}, nil
}

// ControlIn performs a vendor IN control transfer
func (t *USBTransport) ControlIn(request uint8, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := t.dev.Control(gousb.ControlIn|vendorInterfaceRequest, request, 0, 0, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// ControlOut performs a vendor OUT control transfer
func (t *USBTransport) ControlOut(request uint8, data []byte) error {
	_, err := t.dev.Control(gousb.ControlOut|vendorInterfaceRequest, request, 0, 0, data)
	return err
}

// BulkIn reads up to length bytes from the bulk IN endpoint
func (t *USBTransport) BulkIn(length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := t.in.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// BulkOut writes data to the bulk OUT endpoint
func (t *USBTransport) BulkOut(data []byte) (int, error) {
	return t.out.Write(data)
}

// Close releases the interface, the device and the libusb context
func (t *USBTransport) Close() error {
	t.done()
	err := t.dev.Close()
	if cerr := t.ctx.Close(); err == nil {
		err = cerr
	}
	return err
}
