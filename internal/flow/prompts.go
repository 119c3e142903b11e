package flow

import (
	"fmt"
	"strings"

	"github.com/lafiya-uwa/ussdcare/internal/models"
)

// All user-facing prompts are bilingual Hausa/English, matching the service's
// deployment in Kano state. Hausa comes first on every screen.

const (
	promptWelcomeNew = "Barka da zuwa Lafiyar Uwa!\n" +
		"Welcome to Mother's Health!\n\n" +
		"1. Yi rajista (Register)\n" +
		"2. Game da mu (About us)"

	promptEnterName = "Shafin rajista:\n\n" +
		"Za mu fara rajista.\n" +
		"We will begin registration.\n\n" +
		"Shigar da sunan ku (Enter your full name):"

	promptAlreadyRegistered = "Ka riga ka yi rajista. Kira *347*1# don samun taimako.\n" +
		"You're already registered. Call *347*1# for help."

	promptAge = "Shigar da shekarun ku:\n" +
		"Enter your age (in years):\n\n" +
		"Misali: 25"

	promptAgeRetry = "Shigar da ingantaccen shekaru (10-60):\n" +
		"Please enter a valid age (10-60):"

	promptEDD = "Ranar da ake tsammanin haihuwa:\n" +
		"Expected delivery date:\n\n" +
		"Format: DD-MM-YYYY\n" +
		"Misali: 15-12-2025"

	promptEDDRetry = "Ranar ba daidai ba. Sake shigarwa:\n" +
		"Invalid date. Please re-enter:\n\n" +
		"Format: DD-MM-YYYY"

	promptComplications = "Shin kun taɓa samun matsala a cikin ciki a baya?\n" +
		"Have you had complications in previous pregnancies?\n\n" +
		"1. Eh (Yes)\n" +
		"2. A'a (No)\n" +
		"3. Ciki na farko (First pregnancy)"

	promptDiabetes = "Shin kuna da ciwon sukari (diabetes)?\n" +
		"Do you have diabetes?\n\n" +
		"1. Eh (Yes)\n" +
		"2. A'a (No)"

	promptMultiples = "Shin wannan ciki ɗin tagwaye ko uku ne?\n" +
		"Is this a twin or triplet pregnancy?\n\n" +
		"1. Eh (Yes)\n" +
		"2. A'a (No)\n" +
		"3. Ban sani ba (I don't know)"

	promptRegisterFirst = "Don Allah yi rajista da farko don amfani da wannan sabis.\n" +
		"Please register first to use this service. Dial *347*1# and press 1."

	promptUpdateMenu = "Sabunta bayanai:\n\n" +
		"1. Sabunta suna (Update name)\n" +
		"2. Sabunta LGA (Update LGA)\n" +
		"3. Sabunta makon ciki (Update pregnancy week)\n" +
		"4. Komawa menu (Back)"

	promptUpdateName = "Shigar da sabon suna:\nEnter your new name:"
	promptUpdateLGA  = "Shigar da sabon LGA:\nEnter your new LGA:"
	promptUpdateWeek = "Shigar da sabon makon ciki:\nEnter your current pregnancy week:"

	promptUpdateWeekInvalid = "Don Allah shigar da lamba. Misali: 12 don makon 12.\n" +
		"Please enter a number. Example: 12 for week 12."

	promptAbout = "Lafiyar Uwa - Game da mu:\n\n" +
		"Muna taimaka wa mata masu juna biyu da yara su sami kiwon lafiya mai inganci.\n\n" +
		"Sabis din kyauta ne! Ana ba da shawarwari akan:\n" +
		"- Alamomin haɗari\n" +
		"- Lokutan rigakafi\n" +
		"- Abinci mai gina jiki\n" +
		"- Kula da juna biyu\n\n" +
		"Kira *347*1# don yi rajista."

	promptDangerSigns = "Alamomin haɗari na gaggawa:\n\n" +
		"- Zubar jini mai yawa (heavy bleeding)\n" +
		"- Ciwon kai mai ƙarfi (severe headache)\n" +
		"- Hangen nesa ya lalace (blurred vision)\n" +
		"- Zazzaɓi mai zafi (high fever)\n" +
		"- Tashin zuciya da amai (vomiting)\n\n" +
		"Idan kuna da ɗayan waɗannan, kira nan da nan: *347*911#\n" +
		"Ko nemo asibiti mafi kusa!"

	promptEmergency = "GAGGAWA:\n\n" +
		"Idan kana da alamomin haɗari, KIRA NAN DA NAN:\n" +
		"Lambar Gaggawa: *347*911#\n\n" +
		"Asibitoci a Kano:\n" +
		"- Murtala Muhammad Hospital: 064-320000\n" +
		"- Aminu Kano Hospital: 064-662300\n" +
		"- Nassarawa Hospital: 064-631491\n\n" +
		"JE ASIBITI NAN DA NAN!"

	promptRegistrationError = "Hakuri, an sami matsala. Don Allah sake gwadawa.\n" +
		"Sorry, an error occurred. Please try again."
)

func promptWelcomeExisting(name string) string {
	return fmt.Sprintf("Sannu %s!\n"+
		"Main Menu:\n\n"+
		"1. Duba alamomin haɗari (Check danger signs)\n"+
		"2. Bayanan rigakafi (Vaccination info)\n"+
		"3. Nemi kira (Request callback)\n"+
		"4. Gaggawa (Emergency)\n"+
		"5. Bayanan ku (Your profile)\n"+
		"6. Sabunta bayanai (Update profile)", name)
}

func promptLGAMenu(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sannu %s!\n\nZaɓi Local Government Area:\n", name)
	for _, lga := range models.KanoLGAs {
		fmt.Fprintf(&b, "%d. %s\n", lga.ID, lga.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

func promptCallbackAck(phone string) string {
	return "Roƙon kira an karɓa!\n" +
		"Callback request received!\n\n" +
		"Ma'aikacin kiwon lafiya zai kira ku cikin sa'o'i 24.\n" +
		"A health worker will call you within 24 hours.\n\n" +
		"Za mu kira zuwa: " + phone
}

func promptProfile(f models.Fields) string {
	week := f[models.FieldUserWeek]
	weekText := "Ba a sani ba"
	if week != "" {
		weekText = "Mako " + week
	}
	var riskText string
	switch models.RiskLevel(f[models.FieldUserRisk]) {
	case models.RiskLevelHigh:
		riskText = "BABBA (High)"
	case models.RiskLevelModerate:
		riskText = "MATSAKAICI (Moderate)"
	default:
		riskText = "KARAMI (Low)"
	}
	return fmt.Sprintf("Bayanan mai amfani:\n\n"+
		"Lambar waya: %s\n"+
		"Suna: %s\n"+
		"LGA: %s\n"+
		"Mako na ciki: %s\n"+
		"Matsayin haɗari: %s\n\n"+
		"Danna 6 don sabunta bayananka.",
		f[models.FieldUserPhone], f[models.FieldUserName], f[models.FieldUserLGA], weekText, riskText)
}

func promptVaccination(week int) string {
	var info string
	switch {
	case week <= 12:
		info = "Rigakafi na farko: 6-12 makonni\n" +
			"- Tetanus Toxoid\n" +
			"- Influenza\n" +
			"- COVID-19 (idan an ba da shawara)"
	case week <= 24:
		info = "Rigakafi na biyu: 13-24 makonni\n" +
			"- Tetanus Toxoid (na biyu)\n" +
			"- Diphtheria Tetanus Pertussis"
	default:
		info = "Rigakafi na uku: 25+ makonni\n" +
			"- Tetanus Toxoid (na uku)"
	}
	return "Bayanan Rigakafi:\n\n" + info +
		"\n\nZa mu tuna muku lokacin da ya zo lokacin rigakafinku."
}

func promptRegistrationComplete(name string, result models.RiskResult) string {
	var riskMessage string
	switch result.Level {
	case models.RiskLevelHigh:
		riskMessage = "MUHIMMI: Matsalar ku yana da haɗari.\n" +
			"IMPORTANT: Your pregnancy is HIGH RISK.\n\n" +
			"Za mu tuntuɓi likitan ku nan da nan.\n" +
			"A health worker will contact you immediately.\n\n"
	case models.RiskLevelModerate:
		riskMessage = "Matsalar ku yana buƙatar kulawa ta musamman.\n" +
			"Your pregnancy requires MODERATE care.\n\n" +
			"Ka je asibiti cikin kwanaki 2.\n" +
			"Please visit a health facility within 2 days.\n\n"
	default:
		riskMessage = "Matsalar ku yana da kyau.\n" +
			"Your pregnancy is LOW RISK.\n\n"
	}
	level := strings.ToUpper(string(result.Level))
	return riskMessage +
		"Rajista ta yi nasara!\n" +
		"Registration successful!\n\n" +
		"Sunan ku: " + name + "\n" +
		"Matsayin haɗari: " + level + "\n" +
		"Risk Level: " + level + "\n\n" +
		"Za ku karɓi saƙo kowane mako don ba da shawarwari kan lafiya.\n" +
		"You'll receive weekly health tips by SMS.\n\n" +
		"Don gaggawa, kira: *347*911#\n" +
		"For emergencies, dial: *347*911#"
}
