package netmd

// DeviceID identifies a known NetMD device model
type DeviceID struct {
	Vendor  uint16
	Product uint16
	Name    string
}

// Vendor IDs with protocol quirks
const (
	VendorSony      uint16 = 0x054c
	VendorSharp     uint16 = 0x04dd
	VendorPanasonic uint16 = 0x04da
	VendorKenwood   uint16 = 0x0b28
)

// KnownDevices lists the recorders the driver opens
var KnownDevices = []DeviceID{
	{VendorSony, 0x0034, "Sony PCLK-XX"},
	{VendorSony, 0x0036, "Sony"},
	{VendorSony, 0x0075, "Sony MZ-N1"},
	{VendorSony, 0x007c, "Sony"},
	{VendorSony, 0x0080, "Sony LAM-1"},
	{VendorSony, 0x0081, "Sony MDS-JB980/MDS-NT1/MDS-JE780"},
	{VendorSony, 0x0084, "Sony MZ-N505"},
	{VendorSony, 0x0085, "Sony MZ-S1"},
	{VendorSony, 0x0086, "Sony MZ-N707"},
	{VendorSony, 0x008e, "Sony CMT-C7NT"},
	{VendorSony, 0x0097, "Sony PCGA-MDN1"},
	{VendorSony, 0x00ad, "Sony CMT-L7HD"},
	{VendorSony, 0x00c6, "Sony MZ-N10"},
	{VendorSony, 0x00c7, "Sony MZ-N910"},
	{VendorSony, 0x00c8, "Sony MZ-N710/NE810/NF810"},
	{VendorSony, 0x00c9, "Sony MZ-N510/NF610"},
	{VendorSony, 0x00ca, "Sony MZ-NE410/DN430/NF520"},
	{VendorSony, 0x00e7, "Sony CMT-M333NT/M373NT"},
	{VendorSony, 0x00eb, "Sony MZ-NE810/NE910"},
	{VendorSony, 0x0101, "Sony LAM-10"},
	{VendorSony, 0x0113, "Aiwa AM-NX1"},
	{VendorSony, 0x013f, "Sony MDS-S500"},
	{VendorSony, 0x0148, "Sony MDS-A1"},
	{VendorSony, 0x014c, "Aiwa AM-NX9"},
	{VendorSony, 0x017e, "Sony MZ-NH1"},
	{VendorSony, 0x0180, "Sony MZ-NH3D"},
	{VendorSony, 0x0182, "Sony MZ-NH900"},
	{VendorSony, 0x0184, "Sony MZ-NH700/NH800"},
	{VendorSony, 0x0186, "Sony MZ-NH600"},
	{VendorSony, 0x0187, "Sony MZ-NH600D"},
	{VendorSony, 0x0188, "Sony MZ-N920"},
	{VendorSony, 0x018a, "Sony LAM-3"},
	{VendorSony, 0x01e9, "Sony MZ-DH10P"},
	{VendorSony, 0x0219, "Sony MZ-RH10"},
	{VendorSony, 0x021b, "Sony MZ-RH710/MZ-RH910"},
	{VendorSony, 0x021d, "Sony CMT-AH10"},
	{VendorSony, 0x022c, "Sony CMT-AH10"},
	{VendorSony, 0x023c, "Sony DS-HMD1"},
	{VendorSony, 0x0286, "Sony MZ-RH1"},
	{VendorSharp, 0x7202, "Sharp IM-MT880H/MT899H"},
	{VendorSharp, 0x9013, "Sharp IM-DR400/DR410"},
	{VendorSharp, 0x9014, "Sharp IM-DR80/DR420/DR580 - Kenwood DMC-S9NET"},
	{VendorPanasonic, 0x23b3, "Panasonic SJ-MR250"},
	{VendorPanasonic, 0x23b6, "Panasonic SJ-MR270"},
	{VendorKenwood, 0x1004, "Kenwood MDX-J9"},
}

// LookupDevice returns the known device matching vendor and product
func LookupDevice(vendor, product uint16) (DeviceID, bool) {
	for _, d := range KnownDevices {
		if d.Vendor == vendor && d.Product == product {
			return d, true
		}
	}
	return DeviceID{}, false
}
