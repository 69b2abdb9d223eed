package main

import (
	"redactapi/internal/pdfgen"
)

const wrapWidth = 84

// sample is one seeded legal document.
type sample struct {
	Title    string
	Filename string
	Sections []section
}

// section is a heading followed by paragraphs. A section with NewPage set
// starts on a fresh page.
type section struct {
	Heading    string
	Paragraphs []string
	NewPage    bool
}

// PDF renders s as a letter-size PDF.
func (s sample) PDF() []byte {
	lines := []string{s.Title, ""}
	for _, sec := range s.Sections {
		if sec.NewPage {
			lines = append(lines, pdfgen.PageBreak)
		}
		lines = append(lines, sec.Heading, "")
		for _, p := range sec.Paragraphs {
			lines = append(lines, pdfgen.Wrap(p, wrapWidth)...)
			lines = append(lines, "")
		}
	}
	return pdfgen.Document{Title: s.Title, Pages: pdfgen.Paginate(lines)}.Bytes()
}

var samples = []sample{
	{
		Title:    "Employment Contract - Confidential",
		Filename: "employment_contract.pdf",
		Sections: []section{
			{
				Heading: "EMPLOYMENT AGREEMENT",
				Paragraphs: []string{
					`This Employment Agreement (the "Agreement") is entered into as of January 15, 2024, by and between Northwind Analytics, Inc., a Delaware corporation (the "Company"), and Jane Smith, an individual residing at 123 Main Street, San Francisco, CA 94102 (the "Employee").`,
				},
			},
			{
				Heading: "1. POSITION AND DUTIES",
				Paragraphs: []string{
					"The Company hereby employs the Employee as Senior Data Engineer. The Employee shall report to the Chief Technology Officer and shall perform such duties as are customarily associated with such position.",
					"The Employee agrees to devote full business time and attention to the business of the Company and shall not engage in any other employment without prior written consent.",
				},
			},
			{
				Heading: "2. COMPENSATION",
				Paragraphs: []string{
					"Base Salary. The Company shall pay the Employee an annual base salary of $185,000, payable in accordance with the Company's standard payroll practices. Direct deposit: account 004417892, routing 121000358.",
					"Equity. Subject to approval by the Board, the Employee shall be granted an option to purchase 40,000 shares of common stock, vesting over four years with a one-year cliff.",
				},
			},
			{
				Heading: "3. BENEFITS",
				NewPage: true,
				Paragraphs: []string{
					"The Employee shall be eligible to participate in the Company's health, dental, and vision plans. Employee Social Security Number for benefits enrollment: 123-45-6789.",
					"The Employee shall be entitled to twenty (20) days of paid time off per calendar year, accruing ratably.",
				},
			},
			{
				Heading: "4. CONFIDENTIALITY",
				Paragraphs: []string{
					"The Employee acknowledges that during employment the Employee will have access to confidential information, including customer lists, pricing, source code, and business plans, and agrees not to disclose such information during or after employment.",
				},
			},
			{
				Heading: "5. TERMINATION",
				Paragraphs: []string{
					"Either party may terminate this Agreement upon thirty (30) days written notice. Upon termination without cause, the Company shall pay severance equal to three (3) months of base salary.",
					"IN WITNESS WHEREOF, the parties have executed this Agreement as of the date first written above.",
				},
			},
		},
	},
	{
		Title:    "Non-Disclosure Agreement (NDA)",
		Filename: "nda_agreement.pdf",
		Sections: []section{
			{
				Heading: "MUTUAL NON-DISCLOSURE AGREEMENT",
				Paragraphs: []string{
					`This Mutual Non-Disclosure Agreement is made on March 3, 2024 between Blue Harbor Capital LLC, 500 Market Street, Suite 900, Boston, MA 02110 ("Blue Harbor") and Meridian Biotech Corp., 77 Lakeside Drive, Austin, TX 78701 ("Meridian").`,
				},
			},
			{
				Heading: "1. DEFINITION OF CONFIDENTIAL INFORMATION",
				Paragraphs: []string{
					"Confidential Information means any non-public information disclosed by either party, including trade secrets, clinical trial data, financial projections, and the terms of the proposed acquisition valued at approximately $42,500,000.",
				},
			},
			{
				Heading: "2. OBLIGATIONS OF RECEIVING PARTY",
				Paragraphs: []string{
					"The receiving party shall hold Confidential Information in strict confidence, use it solely to evaluate the proposed transaction, and limit access to employees with a need to know who are bound by obligations at least as protective as these.",
				},
			},
			{
				Heading: "3. TERM",
				NewPage: true,
				Paragraphs: []string{
					"This Agreement remains in effect for three (3) years from the date above. Obligations regarding trade secrets survive for so long as the information remains a trade secret under applicable law.",
				},
			},
			{
				Heading: "4. CONTACTS",
				Paragraphs: []string{
					"Notices to Blue Harbor: Michael Chen, General Counsel, mchen@blueharbor.example, (617) 555-0142. Notices to Meridian: Dr. Priya Raman, priya.raman@meridianbio.example, (512) 555-0199.",
				},
			},
		},
	},
	{
		Title:    "Settlement Agreement",
		Filename: "settlement_agreement.pdf",
		Sections: []section{
			{
				Heading: "CONFIDENTIAL SETTLEMENT AGREEMENT AND RELEASE",
				Paragraphs: []string{
					`This Settlement Agreement is entered into on June 20, 2024 by Robert Alvarez ("Claimant") and Summit Logistics Group, Inc. ("Respondent") to resolve Case No. 2023-CV-04418 pending in the Superior Court of California, County of Los Angeles.`,
				},
			},
			{
				Heading: "1. SETTLEMENT PAYMENT",
				Paragraphs: []string{
					"Respondent shall pay Claimant the total sum of $275,000 within fifteen (15) business days of execution, by wire transfer to account 7730019942 at First Pacific Bank, SWIFT FPBKUS66.",
				},
			},
			{
				Heading: "2. RELEASE OF CLAIMS",
				Paragraphs: []string{
					"In consideration of the payment, Claimant releases Respondent and its officers, directors, and employees from all claims arising out of Claimant's employment, including claims for wrongful termination and unpaid wages.",
				},
			},
			{
				Heading: "3. NO ADMISSION OF LIABILITY",
				NewPage: true,
				Paragraphs: []string{
					"This Agreement is a compromise of disputed claims and shall not be construed as an admission of liability by any party.",
				},
			},
			{
				Heading: "4. CONFIDENTIALITY",
				Paragraphs: []string{
					"The parties agree to keep the terms of this Agreement confidential, except as required by law or to their attorneys, accountants, and tax advisors. Claimant date of birth for tax reporting: 04/12/1981.",
				},
			},
			{
				Heading: "5. GOVERNING LAW",
				Paragraphs: []string{
					"This Agreement shall be governed by the laws of the State of California without regard to its conflict of laws principles.",
				},
			},
		},
	},
}
