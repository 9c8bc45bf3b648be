package service

import "github.com/noah-isme/lesson-plan-api/internal/models"

type exportLabels struct {
	Teacher, Day, Period, Class, Subject, Lesson, Classwork, Support, Homework string
	Week, Dates, Notes, UpdatedAt                                              string
	PlanTitle, ReportTitle, SectionBoys, SectionGirls                          string
	Days                                                                       map[models.Day]string
}

var labelsByLanguage = map[models.Language]exportLabels{
	models.LanguageFrench: {
		Teacher: "Enseignant", Day: "Jour", Period: "Période", Class: "Classe", Subject: "Matière",
		Lesson: "Leçon", Classwork: "Travaux de classe", Support: "Support", Homework: "Devoirs",
		Week: "Semaine", Dates: "Dates", Notes: "Notes", UpdatedAt: "Mis à jour",
		PlanTitle: "Plan de leçons hebdomadaire", ReportTitle: "Rapport complet par classe",
		SectionBoys: "Garçons", SectionGirls: "Filles",
		Days: map[models.Day]string{
			models.Sunday: "Dimanche", models.Monday: "Lundi", models.Tuesday: "Mardi",
			models.Wednesday: "Mercredi", models.Thursday: "Jeudi",
		},
	},
	models.LanguageEnglish: {
		Teacher: "Teacher", Day: "Day", Period: "Period", Class: "Class", Subject: "Subject",
		Lesson: "Lesson", Classwork: "Classwork", Support: "Support", Homework: "Homework",
		Week: "Week", Dates: "Dates", Notes: "Notes", UpdatedAt: "Updated",
		PlanTitle: "Weekly lesson plan", ReportTitle: "Full report by class",
		SectionBoys: "Boys", SectionGirls: "Girls",
		Days: map[models.Day]string{
			models.Sunday: "Sunday", models.Monday: "Monday", models.Tuesday: "Tuesday",
			models.Wednesday: "Wednesday", models.Thursday: "Thursday",
		},
	},
	models.LanguageArabic: {
		Teacher: "المعلم", Day: "اليوم", Period: "الحصة", Class: "القسم", Subject: "المادة",
		Lesson: "الدرس", Classwork: "أعمال القسم", Support: "الوسائل", Homework: "الواجبات",
		Week: "الأسبوع", Dates: "التواريخ", Notes: "ملاحظات", UpdatedAt: "آخر تحديث",
		PlanTitle: "خطة الدروس الأسبوعية", ReportTitle: "تقرير شامل حسب القسم",
		SectionBoys: "بنين", SectionGirls: "بنات",
		Days: map[models.Day]string{
			models.Sunday: "الأحد", models.Monday: "الاثنين", models.Tuesday: "الثلاثاء",
			models.Wednesday: "الأربعاء", models.Thursday: "الخميس",
		},
	},
}

func labelsFor(lang models.Language) exportLabels {
	if l, ok := labelsByLanguage[lang]; ok {
		return l
	}
	return labelsByLanguage[models.LanguageFrench]
}

func (l exportLabels) day(d models.Day) string {
	if name, ok := l.Days[d]; ok {
		return name
	}
	return string(d)
}

func (l exportLabels) section(s models.Section) string {
	if s == models.SectionGirls {
		return l.SectionGirls
	}
	return l.SectionBoys
}
