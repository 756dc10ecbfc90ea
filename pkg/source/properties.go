package source

// Product property names understood by MsiGetProductInfo.
const (
	PropertyProductName     = "ProductName"
	PropertyPackageCode     = "PackageCode"
	PropertyVersionString   = "VersionString"
	PropertyAssignmentType  = "AssignmentType"
	PropertyPublisher       = "Publisher"
	PropertyLanguage        = "Language"
	PropertyInstallLocation = "InstallLocation"
	PropertyInstallSource   = "InstallSource"
	PropertyPackageName     = "PackageName"
	PropertyProductIcon     = "ProductIcon"
	PropertyURLInfoAbout    = "URLInfoAbout"
	PropertyHelpLink        = "HelpLink"
	PropertyHelpTelephone   = "HelpTelephone"
	PropertyURLUpdateInfo   = "URLUpdateInfo"
	PropertyInstanceType    = "InstanceType"
	PropertyTransforms      = "Transforms"
	PropertyLocalPackage    = "LocalPackage"
	PropertyInstallDate     = "InstallDate"
)

// ReportedProperty describes one install property shown in the product listing.
type ReportedProperty struct {
	Key   string
	Title string
	// Advertised is true when the property is available for advertised-only products.
	Advertised bool
}

// ReportedProperties is the ordered list of install properties queried per product.
var ReportedProperties = []ReportedProperty{
	{PropertyPackageCode, "Package code", true},
	{PropertyVersionString, "Version", false},
	{PropertyPublisher, "Publisher", false},
	{PropertyLanguage, "Language", true},
	{PropertyInstallLocation, "Suggested installation location", false},
	{PropertyInstallSource, "Installed from", false},
	{PropertyPackageName, "Package", true},
	{PropertyProductIcon, "Product Icon", true},
	{PropertyURLInfoAbout, "About link", false},
	{PropertyHelpLink, "Help link", false},
	{PropertyHelpTelephone, "Help telephone", false},
	{PropertyURLUpdateInfo, "Update link", false},
	{PropertyInstanceType, "Instance type", true},
	{PropertyTransforms, "Transforms", true},
}
